package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replaceTimetable drives the handler with a raw JSON body.  Requests
// below all fail validation, so no repositories are needed.
func replaceTimetable(t *testing.T, code, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("code")
	c.SetParamValues(code)

	h := &AdminTimetableHandler{}
	require.NoError(t, h.ReplaceTimetable(c))
	return rec
}

func TestReplaceTimetableValidation(t *testing.T) {
	cases := []struct {
		name string
		code string
		body string
	}{
		{"missing code", "", `{"stops":[{"station":"a","station_no":1},{"station":"b","station_no":2}]}`},
		{"too few stops", "G1", `{"stops":[{"station":"a","station_no":1}]}`},
		{"empty station", "G1", `{"stops":[{"station":"a","station_no":1},{"station":" ","station_no":2}]}`},
		{"gap in numbering", "G1", `{"stops":[{"station":"a","station_no":1},{"station":"b","station_no":3}]}`},
		{"unordered numbering", "G1", `{"stops":[{"station":"a","station_no":2},{"station":"b","station_no":1}]}`},
		{"duplicate station", "G1", `{"stops":[{"station":"a","station_no":1},{"station":"a","station_no":2}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := replaceTimetable(t, tc.code, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
