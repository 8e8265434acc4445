// internal/view/helpers.go
//
// User-Agent template helpers.  Every page template can call:
//
//	{{ browser .Request }} {{ device .Request }}
//	{{ if isBot .Request }}Robot!{{ end }}
package view

import (
	"html/template"

	"github.com/tallyhq/tally/internal/requestinfo"
)

// uaFuncMap returns helpers keyed off *requestinfo.RequestInfo.
func uaFuncMap() template.FuncMap {
	safe := func(f func(*requestinfo.RequestInfo) string) func(*requestinfo.RequestInfo) string {
		return func(ri *requestinfo.RequestInfo) string {
			if ri == nil {
				return ""
			}
			return f(ri)
		}
	}
	return template.FuncMap{
		"browser":  safe(func(ri *requestinfo.RequestInfo) string { return ri.UA.Browser }),
		"os":       safe(func(ri *requestinfo.RequestInfo) string { return ri.UA.OS }),
		"device":   safe(func(ri *requestinfo.RequestInfo) string { return ri.UA.Device }),
		"platform": safe(func(ri *requestinfo.RequestInfo) string { return ri.UA.Platform }),
		"isBot": func(ri *requestinfo.RequestInfo) bool {
			return ri != nil && ri.UA.IsBot
		},
	}
}
