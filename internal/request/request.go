package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Values flattens a request body into string fields, accepting both JSON
// objects and form posts so browser forms and API clients share handlers.
// Malformed JSON yields an empty map; field validation handles the rest.
func Values(r *http.Request) map[string]string {
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/json") {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return map[string]string{}
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			switch val := v.(type) {
			case nil:
				// explicit null counts as absent
			case string:
				values[k] = val
			default:
				values[k] = fmt.Sprintf("%v", val)
			}
		}
		return values
	}

	if err := r.ParseForm(); err != nil {
		return map[string]string{}
	}
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	return values
}
