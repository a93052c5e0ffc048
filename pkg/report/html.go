package report

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HTMLConfig contains configuration for HTML report generation.
type HTMLConfig struct {
	OutputPath  string // Path to write the HTML file
	EmbedAssets bool   // Embed screenshots as base64 (makes file larger but portable)
	Title       string // Report title (default: "Test Report")
	ReportDir   string // Directory containing report.json (needed for asset paths)
}

// GenerateHTML generates an HTML report from the report directory.
func GenerateHTML(reportDir string, cfg HTMLConfig) error {
	index, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = reportDir
	}
	return writeHTML(index, cfg)
}

func writeHTML(index *Index, cfg HTMLConfig) error {
	if cfg.Title == "" {
		cfg.Title = "Test Report"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(cfg.ReportDir, "report.html")
	}

	html, err := renderHTML(buildHTMLData(index, cfg))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := os.WriteFile(cfg.OutputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title       string
	Index       *Index
	Duration    string
	StatusClass string
	Scenarios   []ScenarioHTMLData
	JSONData    template.JS
}

// ScenarioHTMLData is one scenario row.
type ScenarioHTMLData struct {
	Entry       ScenarioEntry
	Duration    string
	StatusClass string
	Steps       []StepHTMLData
	Screenshots []template.URL
}

// StepHTMLData is one step row.
type StepHTMLData struct {
	Step        StepEntry
	Duration    string
	StatusClass string
}

func buildHTMLData(index *Index, cfg HTMLConfig) HTMLData {
	data := HTMLData{
		Title:       cfg.Title,
		Index:       index,
		StatusClass: statusClass(index.Status),
		Duration:    "-",
	}
	if index.EndTime != nil {
		ms := index.EndTime.Sub(index.StartTime).Milliseconds()
		data.Duration = formatDuration(&ms)
	}

	for _, sc := range index.Scenarios {
		row := ScenarioHTMLData{
			Entry:       sc,
			Duration:    formatDuration(sc.Duration),
			StatusClass: statusClass(sc.Status),
		}
		for _, st := range sc.Steps {
			d := st.Duration
			row.Steps = append(row.Steps, StepHTMLData{
				Step:        st,
				Duration:    formatDuration(&d),
				StatusClass: statusClass(st.Status),
			})
		}
		for _, path := range sc.Attachments {
			if src := assetSrc(path, cfg); src != "" {
				row.Screenshots = append(row.Screenshots, template.URL(src))
			}
		}
		data.Scenarios = append(data.Scenarios, row)
	}

	jsonBytes, _ := json.Marshal(index)
	data.JSONData = template.JS(jsonBytes)
	return data
}

// assetSrc returns an img src for path: inline when embedding, otherwise
// relative to the report directory.
func assetSrc(path string, cfg HTMLConfig) string {
	if cfg.EmbedAssets {
		return loadAsBase64(path)
	}
	absPath, err1 := filepath.Abs(path)
	absDir, err2 := filepath.Abs(cfg.ReportDir)
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return filepath.ToSlash(absPath)
	}
	return filepath.ToSlash(rel)
}

func statusClass(s Status) string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed, StatusErrored:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusRunning:
		return "running"
	default:
		return "pending"
	}
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	d := time.Duration(*ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", *ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func loadAsBase64(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := "image/png"
	if ext == ".jpg" || ext == ".jpeg" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func renderHTML(data HTMLData) (string, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --text-primary: #000000;
            --text-muted: rgb(107, 114, 128);
            --border-color: #e5e7eb;
            --passed: #22c55e;
            --failed: #ef4444;
            --skipped: #eab308;
            --running: #06b6d4;
            --pending: #6b7280;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.5;
        }
        .header {
            background: var(--bg-secondary);
            border-bottom: 1px solid var(--border-color);
            padding: 16px 24px;
        }
        .summary { display: flex; gap: 16px; margin-top: 8px; color: var(--text-muted); }
        .scenario { border-bottom: 1px solid var(--border-color); padding: 12px 24px; }
        .scenario summary { cursor: pointer; font-weight: 600; }
        .steps { margin: 8px 0 0 16px; }
        .step { display: flex; gap: 12px; font-size: 14px; }
        .error { color: var(--failed); font-family: monospace; white-space: pre-wrap; margin-top: 6px; }
        .badge { display: inline-block; min-width: 64px; font-size: 12px; text-transform: uppercase; }
        .passed { color: var(--passed); }
        .failed { color: var(--failed); }
        .skipped { color: var(--skipped); }
        .running { color: var(--running); }
        .pending { color: var(--pending); }
        .shot { max-width: 240px; margin-top: 8px; border: 1px solid var(--border-color); }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}} <span class="badge {{.StatusClass}}">{{.Index.Status}}</span></h1>
        <div class="summary">
            <span>Platform: {{.Index.Target.Platform}}</span>
            {{if .Index.Target.Device}}<span>Device: {{.Index.Target.Device}}</span>{{end}}
            <span>Driver: {{.Index.Runner.Driver}}</span>
            <span>Total: {{.Index.Summary.Total}}</span>
            <span class="passed">Passed: {{.Index.Summary.Passed}}</span>
            <span class="failed">Failed: {{.Index.Summary.Failed}}</span>
            <span class="failed">Errored: {{.Index.Summary.Errored}}</span>
            <span class="skipped">Skipped: {{.Index.Summary.Skipped}}</span>
            <span>Duration: {{.Duration}}</span>
        </div>
    </div>
    {{range .Scenarios}}
    <details class="scenario"{{if eq .StatusClass "failed"}} open{{end}}>
        <summary><span class="badge {{.StatusClass}}">{{.Entry.Status}}</span> {{.Entry.Name}} ({{.Duration}})</summary>
        <div class="steps">
            {{range .Steps}}
            <div class="step"><span class="badge {{.StatusClass}}">{{.Step.Status}}</span><span>{{.Step.Name}}</span><span>{{.Duration}}</span></div>
            {{end}}
        </div>
        {{if .Entry.Error}}<div class="error">{{.Entry.Error}}</div>{{end}}
        {{if .Entry.Teardown}}<div class="error">teardown: {{.Entry.Teardown}}</div>{{end}}
        {{range .Screenshots}}<img class="shot" src="{{.}}" alt="screenshot">{{end}}
    </details>
    {{end}}
    <script>window.REPORT_DATA = {{.JSONData}};</script>
</body>
</html>
`
