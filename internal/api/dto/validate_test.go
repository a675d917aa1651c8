package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(&AlertCreateRequest{Severity: "SEVERE"})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	details := apperrors.ToDomainError(err).Details
	assert.Equal(t, "required", details["category"])
	assert.Equal(t, "required", details["title"])
	assert.Equal(t, "oneof=CRITICAL HIGH MEDIUM LOW INFO", details["severity"])
}

func TestValidateAcceptsWellFormedPayloads(t *testing.T) {
	assert.NoError(t, Validate(&AlertCreateRequest{Category: "BATTERY_LOW", Severity: "HIGH", Title: "Battery"}))
	assert.NoError(t, Validate(&TicketUpdateRequest{}))
	assert.NoError(t, Validate(&SLAConfigRequest{Hours: map[string]int{"CRITICAL": 2, "LOW": 96}}))
}

func TestValidateSLAHours(t *testing.T) {
	assert.Error(t, Validate(&SLAConfigRequest{}))
	assert.Error(t, Validate(&SLAConfigRequest{Hours: map[string]int{}}))
	assert.Error(t, Validate(&SLAConfigRequest{Hours: map[string]int{"URGENT": 1}}))
	assert.Error(t, Validate(&SLAConfigRequest{Hours: map[string]int{"HIGH": -1}}))
}

func TestValidateTicketTags(t *testing.T) {
	bad := []string{"ok", ""}
	assert.Error(t, Validate(&TicketUpdateRequest{Tags: &bad}))

	status := "REOPENED"
	assert.Error(t, Validate(&TicketUpdateRequest{Status: &status}))
}
