package notification

import (
	"testing"

	"medhive-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var acme = domain.Inquiry{
	OrganizationName: "Acme",
	ContactEmail:     "a@acme.com",
	Message:          "Hello\nSecond line",
}

func TestRenderOperator(t *testing.T) {
	msg, err := Render(acme, domain.RoleOperator, "ops@medhive.health")
	require.NoError(t, err)

	assert.Equal(t, "ops@medhive.health", msg.To)
	assert.Equal(t, "a@acme.com", msg.ReplyTo)
	assert.Contains(t, msg.Subject, "Acme")
	assert.Contains(t, msg.HTML, "Hello<br>Second line")
	assert.Contains(t, msg.Text, "Hello\nSecond line")
}

func TestRenderInquirerConfirmation(t *testing.T) {
	msg, err := Render(acme, domain.RoleInquirer, "ops@medhive.health")
	require.NoError(t, err)

	assert.Equal(t, "a@acme.com", msg.To)
	assert.Equal(t, "ops@medhive.health", msg.ReplyTo)
	assert.Contains(t, msg.Subject, "Acme")
	assert.Contains(t, msg.HTML, "Hello Acme,")
	assert.Contains(t, msg.HTML, "Hello<br>Second line")
}

func TestRenderEscapesMarkup(t *testing.T) {
	in := domain.Inquiry{
		OrganizationName: "<b>Evil</b>",
		ContactEmail:     "x@y.z",
		Message:          "<script>alert(1)</script>\r\nbye",
	}
	msg, err := Render(in, domain.RoleOperator, "ops@medhive.health")
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "<b>Evil</b>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;alert(1)&lt;/script&gt;<br>bye")
}

func TestRenderUnknownRole(t *testing.T) {
	_, err := Render(acme, domain.RecipientRole("auditor"), "ops@medhive.health")
	assert.Error(t, err)
}
