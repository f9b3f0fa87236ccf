// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"bytes"
	"html/template"
	"net/http"
	"sort"

	"github.com/spf13/viper"
	"rulekeeper.dev/rulekeeper/internal/config"
	"rulekeeper.dev/rulekeeper/internal/consts"
)

const (
	configEndpoint = "/configz"
	configPage     = `<!DOCTYPE html>
<head>
	<title>Rulekeeper Configuration</title>
</head>
<body>
<table>
<tr><th>Key</th><th>Value</th></tr>
{{ range . }}
<tr><td>{{ .Key }}</td><td>{{ .Value }}</td></tr>
{{ end }}
</table>
</body>
`
)

var (
	configPageTemplate = template.Must(template.New("configz").Parse(configPage))
)

type configz struct {
	cfg config.View
}

type configZValue struct {
	Key   string
	Value interface{}
}

// ServeHTTP serves the /configz endpoint that allows a user to view the configuration of the server.
func (cz *configz) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	cfg, ok := cz.cfg.(*viper.Viper)
	if !ok {
		http.Error(w, "Configuration is not a *viper.Viper object", http.StatusInternalServerError)
		return
	}

	values := []configZValue{}
	for _, k := range cfg.AllKeys() {
		values = append(values, configZValue{Key: k, Value: cfg.Get(k)})
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].Key < values[j].Key
	})

	var b bytes.Buffer
	if err := configPageTemplate.Execute(&b, values); err != nil {
		logger.WithError(err).Error("cannot render configz page")
		http.Error(w, "cannot render HTML template", http.StatusInternalServerError)
		return
	}
	_, _ = b.WriteTo(w)
}

func bindConfigz(p Params, b Bindings) error {
	cfg := p.Config()
	if !cfg.GetBool(consts.TelemetryZpagesEnable) {
		return nil
	}
	b.TelemetryHandle(configEndpoint, &configz{cfg: cfg})
	return nil
}
