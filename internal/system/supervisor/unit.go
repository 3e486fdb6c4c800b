package supervisor

import (
	"strings"
	"text/template"
	"time"

	"github.com/greenpi/watering-deploy/internal/domain/deploy"
)

// unitTemplate is the systemd unit layout generated at install time.
const unitTemplate = `[Unit]
Description={{.Description}}
After={{.After}}

[Service]
User={{.User}}
WorkingDirectory={{.WorkingDir}}
ExecStart={{.ExecStart}}
Restart={{.Restart.Mode}}
RestartSec={{seconds .Restart.Delay}}

[Install]
WantedBy={{.WantedBy}}
`

//nolint:gochecknoglobals // Parsed once; template parsing cannot fail at runtime.
var unitTmpl = template.Must(
	template.New("unit").
		Funcs(template.FuncMap{
			"seconds": func(d time.Duration) int {
				return int(d / time.Second)
			},
		}).
		Parse(unitTemplate),
)

// RenderUnit produces the unit file contents for a spec.
func RenderUnit(spec deploy.UnitSpec) (string, error) {
	var b strings.Builder
	if err := unitTmpl.Execute(&b, spec); err != nil {
		return "", err
	}

	return b.String(), nil
}
