package render

import (
	"bytes"
	"html/template"
)

// Fragments maps each dashboard element to its rendered content. Text
// fields are assigned as plain text, HTML fields as markup.
type Fragments struct {
	LocalLogs      string `json:"localLogs"`
	BlockchainLogs string `json:"blockchainLogs"`
	AppID          string `json:"appId"`
	LogsTable      string `json:"logsTable"`
	BlockedContent string `json:"blockedContent"`
	BlockResult    string `json:"blockResult"`
	ResultClass    string `json:"blockResultClass"`
	PanelOpen      bool   `json:"panelOpen"`
	HasExplorer    bool   `json:"hasExplorer"`
}

const columns = 6

var tableTmpl = template.Must(template.New("table").Parse(
	`{{if .Message}}<tr><td colspan="{{.Cols}}">{{.Message}}</td></tr>` +
		`{{else}}{{range .Rows}}<tr>` +
		`<td>{{.Timestamp}}</td>` +
		`<td class="maccell">{{.MAC}}</td>` +
		`<td class="{{.Strength}}">{{.Signal}}</td>` +
		`<td>{{.Channel}}</td>` +
		`<td>{{.Message}}</td>` +
		`<td><button class="blockbtnmac" data-action="block" data-mac="{{.BlockMAC}}">Block</button></td>` +
		`</tr>{{end}}{{end}}`))

var panelTmpl = template.Must(template.New("panel").Parse(
	`{{if .Message}}<div class="blocked-empty{{if .IsError}} error{{end}}">{{.Message}}</div>` +
		`{{else}}<div class="blocked-header">{{.Header}}</div>` +
		`{{range .Entries}}<div class="blocked-item">` +
		`<span class="blocked-mac">{{.MAC}}</span>` +
		`<button class="unblock-btn" data-action="unblock" data-mac="{{.UnblockMAC}}">Unblock</button>` +
		`</div>{{end}}{{end}}`))

// HTML renders v into per-element fragments.
func HTML(v View) (Fragments, error) {
	f := Fragments{
		LocalLogs:      v.LocalLogs,
		BlockchainLogs: v.BlockchainLogs,
		AppID:          v.AppID,
		BlockResult:    v.Result.Text,
		ResultClass:    "block-result",
		PanelOpen:      v.Panel.Visible,
		HasExplorer:    v.ExplorerURL != "",
	}
	if v.Result.Kind != "" {
		f.ResultClass += " " + v.Result.Kind
	}

	var buf bytes.Buffer
	err := tableTmpl.Execute(&buf, struct {
		AttackTable
		Cols int
	}{v.Attacks, columns})
	if err != nil {
		return Fragments{}, err
	}
	f.LogsTable = buf.String()

	buf.Reset()
	if err := panelTmpl.Execute(&buf, v.Panel); err != nil {
		return Fragments{}, err
	}
	f.BlockedContent = buf.String()
	return f, nil
}
