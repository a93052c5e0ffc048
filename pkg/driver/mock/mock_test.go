package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/pagedriver/pkg/core"
)

var _ core.Driver = (*Driver)(nil)
var _ core.Element = (*Element)(nil)
var _ core.Dialer = (*Dialer)(nil)

func TestDriver_FindElement(t *testing.T) {
	ctx := context.Background()
	d := New()
	loc := core.ByID("com.example.app:id/username")

	_, err := d.FindElement(ctx, loc)
	assert.ErrorIs(t, err, core.ErrNoSuchElement)

	el := d.Add(loc, NewElement("hello"))
	got, err := d.FindElement(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, el.ID(), got.ID())
	assert.Equal(t, 2, d.FindCount())
}

func TestDriver_AddAfter(t *testing.T) {
	ctx := context.Background()
	d := New()
	loc := core.ByAccessibilityID("late")
	d.AddAfter(loc, NewElement(""), 20*time.Millisecond)

	_, err := d.FindElement(ctx, loc)
	require.ErrorIs(t, err, core.ErrNoSuchElement)

	assert.Eventually(t, func() bool {
		_, err := d.FindElement(ctx, loc)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestDriver_QuitInvalidatesSession(t *testing.T) {
	ctx := context.Background()
	d := New()
	loc := core.ByID("x")
	d.Add(loc, NewElement(""))
	d.QuitErr = errors.New("socket closed")

	assert.EqualError(t, d.Quit(ctx), "socket closed")
	assert.True(t, d.Quitted())

	_, err := d.FindElement(ctx, loc)
	assert.ErrorIs(t, err, core.ErrIllegalState)
}

func TestDriver_ExecuteMobileRecordsCalls(t *testing.T) {
	d := New()
	d.OnMobile = func(_ *Driver, cmd string, _ map[string]interface{}) (interface{}, error) {
		return cmd == "scrollGesture", nil
	}

	v, err := d.ExecuteMobile(context.Background(), "scrollGesture", map[string]interface{}{"direction": "down"})
	require.NoError(t, err)
	assert.Equal(t, true, v)

	calls := d.MobileCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "scrollGesture", calls[0].Command)
	assert.Equal(t, "down", calls[0].Args["direction"])
}

func TestElement_TextEditing(t *testing.T) {
	ctx := context.Background()
	el := NewElement("")

	require.NoError(t, el.SendKeys(ctx, "a"))
	require.NoError(t, el.SendKeys(ctx, "b"))
	assert.Equal(t, "ab", el.CurrentText())

	require.NoError(t, el.Clear(ctx))
	assert.Equal(t, "", el.CurrentText())
}

func TestElement_Stale(t *testing.T) {
	ctx := context.Background()
	el := NewElement("x")
	el.SetStale(true)

	_, err := el.IsDisplayed(ctx)
	assert.ErrorIs(t, err, core.ErrStaleElement)
	assert.ErrorIs(t, el.Click(ctx), core.ErrStaleElement)
	assert.Equal(t, 0, el.Clicks())
}

func TestDialer(t *testing.T) {
	ctx := context.Background()
	m := &Dialer{Setup: func(d *Driver, _ map[string]interface{}) {
		d.Add(core.ByID("ready"), NewElement(""))
	}}

	drv, err := m.Dial(ctx, "http://unused", map[string]interface{}{"platformName": "Android"})
	require.NoError(t, err)
	_, err = drv.FindElement(ctx, core.ByID("ready"))
	assert.NoError(t, err)
	assert.Len(t, m.Dialed(), 1)
	assert.Equal(t, "Android", m.LastCapabilities()["platformName"])

	m.Fail = errors.New("connection refused")
	_, err = m.Dial(ctx, "http://unused", nil)
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 2, m.Calls())
	assert.Len(t, m.Dialed(), 1)
}

func TestInstallLoginForm(t *testing.T) {
	ctx := context.Background()
	form := LoginForm{
		Username: core.ByID("user"),
		Password: core.ByID("pass"),
		Button:   core.ByID("go"),
		Welcome:  core.ByID("hello"),
	}
	d := New()
	InstallLoginForm(d, form, func(_, pass string) bool { return pass == "pw" })

	d.Element(form.Username).SendKeys(ctx, "ann")
	d.Element(form.Password).SendKeys(ctx, "bad")
	require.NoError(t, d.Element(form.Button).Click(ctx))
	_, err := d.FindElement(ctx, form.Welcome)
	assert.ErrorIs(t, err, core.ErrNoSuchElement)

	d.Element(form.Password).Clear(ctx)
	d.Element(form.Password).SendKeys(ctx, "pw")
	require.NoError(t, d.Element(form.Button).Click(ctx))
	el, err := d.FindElement(ctx, form.Welcome)
	require.NoError(t, err)
	text, _ := el.Text(ctx)
	assert.Equal(t, "Welcome, ann", text)
}
