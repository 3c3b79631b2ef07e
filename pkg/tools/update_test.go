package tools_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/ports"
	"github.com/empassist/empassist/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdater_SendsOnlyChangedFields(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ports.UpdateResult{RowsUpdated: 1, Message: "address updated"})
	}))
	defer srv.Close()

	u := tools.NewUpdater(srv.URL)
	result, err := u.Update(context.Background(), ports.UpdateRequest{
		EmployeeID: "EMP01012",
		Changes: map[domain.Field]string{
			domain.FieldAddress: "123 Main Street, Seattle, WA 98101",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsUpdated)

	assert.Equal(t, "EMP01012", got["employee_id"])
	assert.Equal(t, "123 Main Street, Seattle, WA 98101", got["address"])
	_, hasDept := got["department"]
	_, hasTitle := got["job_title"]
	assert.False(t, hasDept, "unmentioned fields must be omitted")
	assert.False(t, hasTitle, "unmentioned fields must be omitted")
}

func TestUpdater_EmptyStringClearsField(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ports.UpdateResult{RowsUpdated: 1, Message: "job_title cleared"})
	}))
	defer srv.Close()

	u := tools.NewUpdater(srv.URL)
	_, err := u.Update(context.Background(), ports.UpdateRequest{
		EmployeeID: "EMP01012",
		Changes:    map[domain.Field]string{domain.FieldJobTitle: ""},
	})
	require.NoError(t, err)

	v, present := got["job_title"]
	require.True(t, present, "explicit clear must send the field")
	assert.Equal(t, "", v)
}

func TestUpdater_Preconditions(t *testing.T) {
	u := tools.NewUpdater("http://unused.invalid")

	_, err := u.Update(context.Background(), ports.UpdateRequest{EmployeeID: ""})
	assert.True(t, tools.IsClientInput(err))

	_, err = u.Update(context.Background(), ports.UpdateRequest{EmployeeID: "EMP01012"})
	assert.True(t, tools.IsClientInput(err))
}

func TestRegistry_DispatchesByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ports.ValidateResult{IsValid: true, ValidationMessage: "ok"})
	}))
	defer srv.Close()

	reg := tools.NewRegistry()
	tools.RegisterValidator(reg, tools.NewValidator(srv.URL))

	out, err := reg.Execute(context.Background(), tools.ToolNameValidation, map[string]any{
		"employee_id": "EMP01012",
		"first_name":  "Brian",
		"last_name":   "Phillips",
	})
	require.NoError(t, err)
	result, ok := out.(ports.ValidateResult)
	require.True(t, ok)
	assert.True(t, result.IsValid)

	_, err = reg.Execute(context.Background(), "NoSuchTool", nil)
	assert.Error(t, err)

	assert.Equal(t, []string{tools.ToolNameValidation}, reg.Names())
}

func TestDecodeUpdateArgs(t *testing.T) {
	req, err := tools.DecodeUpdateArgs(map[string]any{
		"employee_id": "EMP01012",
		"address":     "456 Oak Ave",
	})
	require.NoError(t, err)
	assert.Equal(t, "EMP01012", req.EmployeeID)
	assert.Equal(t, map[domain.Field]string{domain.FieldAddress: "456 Oak Ave"}, req.Changes)
}
