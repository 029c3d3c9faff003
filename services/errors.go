package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPlan        = errors.New("unknown subscription plan")
	ErrTermsNotAccepted   = errors.New("terms and conditions must be accepted")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSlugTaken          = errors.New("slug already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCategoryNotEmpty   = errors.New("category still has dishes")
	ErrNoCustomer         = errors.New("restaurant has no billing customer yet")
	ErrBillingDisabled    = errors.New("billing is not configured")
	ErrAIDisabled         = errors.New("AI assistant is not configured")
	ErrNotifyDisabled     = errors.New("notifications are not configured")
	ErrUpstream           = errors.New("upstream service error")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)
