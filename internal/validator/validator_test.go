package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type folderBody struct {
	Name     string  `json:"name" binding:"required,notblank,max=120"`
	ParentID *int64  `json:"parent_id"`
	Note     *string `json:"note" binding:"omitempty,notblank"`
}

func bindBody(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst folderBody
	return Bind(c, &dst)
}

func TestBindAcceptsValidBody(t *testing.T) {
	assert.Nil(t, bindBody(t, `{"name":"Week 1","parent_id":3}`))
}

func TestBindRejectsBlankName(t *testing.T) {
	fields := bindBody(t, `{"name":"   "}`)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields["name"], "blank")
}

func TestBindRejectsMissingName(t *testing.T) {
	fields := bindBody(t, `{}`)
	assert.Contains(t, fields, "name")
}

func TestBindRejectsBlankPointer(t *testing.T) {
	fields := bindBody(t, `{"name":"ok","note":" "}`)
	assert.Contains(t, fields, "note")
}

func TestBindReportsSyntaxAsDetail(t *testing.T) {
	fields := bindBody(t, `{"name":`)
	assert.Contains(t, fields, "detail")
}
