// Package capability turns a configuration snapshot into the capability set
// used to open an Appium session.
package capability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/devicelab-dev/pagedriver/pkg/config"
	"github.com/devicelab-dev/pagedriver/pkg/core"
)

// Capability names.
const (
	PlatformName         = "platformName"
	DeviceName           = "deviceName"
	PlatformVersion      = "platformVersion"
	AutomationName       = "automationName"
	App                  = "app"
	AppPackage           = "appPackage"
	AppActivity          = "appActivity"
	BundleID             = "bundleId"
	AutoGrantPermissions = "autoGrantPermissions"
	NoReset              = "noReset"
	FullReset            = "fullReset"
)

// vendorPrefix is required by W3C for every non-standard capability.
const vendorPrefix = "appium:"

// Default automation engines.
const (
	DefaultAndroidAutomation = "UiAutomator2"
	DefaultIOSAutomation     = "XCUITest"
)

// Minimum OS versions supported by the default automation engines.
var minVersions = map[core.Platform]string{
	core.PlatformAndroid: ">= 5.0",
	core.PlatformIOS:     ">= 9.3",
}

type entry struct {
	name  string
	value interface{} // string or bool
}

// Set is an ordered, immutable mapping of capability name to value.
type Set struct {
	platform core.Platform
	entries  []entry
}

// Platform returns the platform the set was built for.
func (s Set) Platform() core.Platform {
	return s.platform
}

// Len returns the number of capabilities.
func (s Set) Len() int {
	return len(s.entries)
}

// Names returns capability names in insertion order.
func (s Set) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}

// Get returns the value for name.
func (s Set) Get(name string) (interface{}, bool) {
	for _, e := range s.entries {
		if e.name == name {
			return e.value, true
		}
	}
	return nil, false
}

// String returns the string value for name, or "".
func (s Set) String(name string) string {
	v, _ := s.Get(name)
	str, _ := v.(string)
	return str
}

// Bool returns the bool value for name, or false.
func (s Set) Bool(name string) bool {
	v, _ := s.Get(name)
	b, _ := v.(bool)
	return b
}

// Map returns a copy of the set keyed by bare capability name.
func (s Set) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(s.entries))
	for _, e := range s.entries {
		m[e.name] = e.value
	}
	return m
}

// W3C returns the alwaysMatch object: platformName stays bare, every other
// capability gets the appium: vendor prefix.
func (s Set) W3C() map[string]interface{} {
	m := make(map[string]interface{}, len(s.entries))
	for _, e := range s.entries {
		if e.name == PlatformName || strings.Contains(e.name, ":") {
			m[e.name] = e.value
			continue
		}
		m[vendorPrefix+e.name] = e.value
	}
	return m
}

func (s *Set) put(name string, value interface{}) {
	s.entries = append(s.entries, entry{name: name, value: value})
}

func (s *Set) putString(name, value string) {
	if value != "" {
		s.put(name, value)
	}
}

// Build creates the capability set for the configured platform.
// It performs no I/O and is deterministic for identical input.
func Build(cfg *config.Config) (Set, error) {
	platform, err := core.ParsePlatform(cfg.PlatformType())
	if err != nil {
		return Set{}, err
	}

	b := builder{cfg: cfg, set: Set{platform: platform}}
	switch platform {
	case core.PlatformAndroid:
		b.android()
	case core.PlatformIOS:
		b.ios()
	}
	if b.err != nil {
		return Set{}, b.err
	}
	if err := validate(b.set); err != nil {
		return Set{}, err
	}
	return b.set, nil
}

type builder struct {
	cfg *config.Config
	set Set
	err error
}

func (b *builder) str(name, key, def string) {
	b.set.putString(name, b.cfg.GetOr(key, def))
}

func (b *builder) flag(name, key string, def bool) {
	if b.err != nil {
		return
	}
	v, err := b.cfg.Bool(key, def)
	if err != nil {
		b.err = err
		return
	}
	b.set.put(name, v)
}

func (b *builder) android() {
	b.set.put(PlatformName, core.PlatformAndroid.CapabilityName())
	b.str(DeviceName, "android.device.name", "")
	b.str(PlatformVersion, "android.platform.version", "")
	b.str(AutomationName, "android.automation.name", DefaultAndroidAutomation)
	b.str(App, "android.app.path", "")
	b.str(AppPackage, "android.app.package", "")
	b.str(AppActivity, "android.app.activity", "")
	b.flag(AutoGrantPermissions, "auto.grant.permissions", true)
	b.flag(NoReset, "no.reset", false)
	b.flag(FullReset, "full.reset", false)
}

func (b *builder) ios() {
	b.set.put(PlatformName, core.PlatformIOS.CapabilityName())
	b.str(DeviceName, "ios.device.name", "")
	b.str(PlatformVersion, "ios.platform.version", "")
	b.str(AutomationName, "ios.automation.name", DefaultIOSAutomation)
	b.str(App, "ios.app.path", "")
	b.str(BundleID, "ios.bundle.id", "")
	b.flag(NoReset, "no.reset", false)
	b.flag(FullReset, "full.reset", false)
}

func validate(s Set) error {
	prefix := s.platform.String()

	if s.String(DeviceName) == "" {
		return missing(prefix + ".device.name")
	}

	switch s.platform {
	case core.PlatformAndroid:
		if s.String(App) == "" && s.String(AppPackage) == "" {
			return missing("android.app.path or android.app.package")
		}
	case core.PlatformIOS:
		if s.String(App) == "" && s.String(BundleID) == "" {
			return missing("ios.app.path or ios.bundle.id")
		}
	}

	if s.Bool(NoReset) && s.Bool(FullReset) {
		return core.ErrConfiguration.WithMessage("no.reset and full.reset cannot both be true")
	}

	if v := s.String(PlatformVersion); v != "" {
		if err := checkVersion(s.platform, v); err != nil {
			return err
		}
	}
	return nil
}

func checkVersion(platform core.Platform, raw string) error {
	key := platform.String() + ".platform.version"
	v, err := semver.NewVersion(raw)
	if err != nil {
		return core.ErrConfiguration.
			WithMessagef("property %s: %q is not a version", key, raw).
			WithCause(err)
	}
	// Constraints never match prereleases; compare beta builds by their release.
	if v.Prerelease() != "" || v.Metadata() != "" {
		v = semver.MustParse(fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()))
	}
	constraint, err := semver.NewConstraint(minVersions[platform])
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return core.ErrConfiguration.
			WithMessagef("property %s: %s %s is below the supported minimum (%s)",
				key, platform.CapabilityName(), raw, minVersions[platform])
	}
	return nil
}

func missing(key string) error {
	return core.ErrConfiguration.
		WithMessage(fmt.Sprintf("missing required property: %s", key)).
		WithDetails(map[string]interface{}{"key": key})
}

// Describe renders the set as sorted "name=value" lines, for logs.
func Describe(s Set) string {
	m := s.Map()
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%v", n, m[n])
	}
	return strings.Join(parts, " ")
}
