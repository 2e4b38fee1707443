package request

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestValuesJSON(t *testing.T) {
	body := `{"title":"write report","count":3,"urgent":true,"due_date":null}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	values := Values(r)
	if values["title"] != "write report" {
		t.Errorf("unexpected title: %q", values["title"])
	}
	if values["count"] != "3" {
		t.Errorf("unexpected count: %q", values["count"])
	}
	if values["urgent"] != "true" {
		t.Errorf("unexpected urgent: %q", values["urgent"])
	}
	// Explicit null means the key is absent.
	if _, ok := values["due_date"]; ok {
		t.Error("expected null field to be absent")
	}
}

func TestValuesForm(t *testing.T) {
	form := url.Values{"title": {"write report"}, "priority": {"high"}}
	r := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	values := Values(r)
	if values["title"] != "write report" {
		t.Errorf("unexpected title: %q", values["title"])
	}
	if values["priority"] != "high" {
		t.Errorf("unexpected priority: %q", values["priority"])
	}
}

func TestValuesMalformedJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	r.Header.Set("Content-Type", "application/json")

	values := Values(r)
	if len(values) != 0 {
		t.Errorf("expected empty map, got %v", values)
	}
}
