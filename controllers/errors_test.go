package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xbirks/alergenu-sub000/services"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: name_es is required", services.ErrInvalidInput), http.StatusBadRequest},
		{services.ErrTermsNotAccepted, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrSlugTaken, http.StatusConflict},
		{services.ErrCategoryNotEmpty, http.StatusConflict},
		{services.ErrBillingDisabled, http.StatusServiceUnavailable},
		{fmt.Errorf("gemini: %w", services.ErrUpstream), http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
