package core_test

import (
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/testutil"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := core.NewTestConfig()
	core.ParseEmailTemplates(conf, testutil.NewLogger(t))

	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantText string
		wantHTML bool
	}{
		{name: "plain body", msg: core.EmailMessage{BodyStr: "hello"}, wantText: "hello"},
		{name: "unknown template", msg: core.EmailMessage{TemplateName: "nope"}},
		{name: "body overrides text template", msg: core.EmailMessage{
			BodyStr:      "short",
			TemplateName: "assignment_created",
			TemplateData: map[string]interface{}{"StudentName": "Ada", "Title": "Essay", "Description": "", "DueDate": time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
		}, wantText: "short", wantHTML: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := tc.msg
			msg.To = []mail.Address{{Address: "ada@edupath.com"}}
			require.NoError(t, msg.Render())
			assert.Equal(t, tc.wantText, msg.TextContent)
			assert.Equal(t, tc.wantHTML, msg.HTMLContent != "")
			assert.Equal(t, tc.wantText != "" || tc.wantHTML, msg.HasContent())
		})
	}
}
