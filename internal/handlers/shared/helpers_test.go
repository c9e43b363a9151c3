package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mechongo/internal/services"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, utils.APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithError(c, logger.NewNop(), err)

	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return recorder.Code, body
}

func TestRespondWithError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"expired", services.ErrOTPExpired, http.StatusGone, string(services.CodeOTPExpired)},
		{"conflict", services.ErrAlreadyAssigned, http.StatusConflict, string(services.CodeAlreadyAssigned)},
		{"not found", services.NewNotFoundError("job"), http.StatusNotFound, string(services.CodeNotFound)},
		{"wrapped", errors.Join(errors.New("tx"), services.ErrCodeMismatch), http.StatusBadRequest, string(services.CodeCodeMismatch)},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, utils.CodeInternalError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := respond(t, tc.err)
			assert.Equal(t, tc.status, status)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	_, body := respond(t, errors.New("mongo: write concern failed on db-3"))
	assert.Equal(t, utils.ErrInternalServer, body.Error.Message)
}

func TestParamObjectID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Params = gin.Params{{Key: "id", Value: "xyz"}}

	_, ok := ParamObjectID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
