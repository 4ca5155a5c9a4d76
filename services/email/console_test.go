package emailsvc

import (
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cheti/core"
	logsvc "github.com/trezcool/cheti/services/logger"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()
	core.ParseEmailTemplates(conf, logger)
	svc := NewConsoleServiceMock(conf, logger)

	issuedAt := time.Date(2024, time.May, 17, 9, 0, 0, 0, time.UTC)
	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Ada", Address: "ada@cheti.test"}},
			Subject:      "Your certificate for Go 101",
			TemplateName: "certificate_issued",
			TemplateData: struct {
				LearnerName string
				CourseTitle string
				Number      string
				IssuedAt    time.Time
			}{"Ada", "Go 101", "CHT-0000-1111-2222-3333-4444", issuedAt},
		},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "lost"},
		&core.EmailMessage{To: []mail.Address{{Address: "bob@cheti.test"}}, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "bob@cheti.test"}}, Subject: "unknown", TemplateName: "nope"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)

	cert := sent[0]
	assert.Contains(t, cert.TextContent, "Hi Ada,")
	assert.Contains(t, cert.TextContent, `"Go 101"`)
	assert.Contains(t, cert.TextContent, "CHT-0000-1111-2222-3333-4444")
	assert.Contains(t, cert.TextContent, "May 17, 2024")
	assert.Contains(t, cert.TextContent, "http://cheti.test/certificates/CHT-0000-1111-2222-3333-4444")
	assert.True(t, strings.Contains(cert.HTMLContent, "<strong>Go 101</strong>"))

	assert.Equal(t, "hello", sent[1].TextContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}
