package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrStoreUnavailable means no backing document store is configured
	ErrStoreUnavailable = goerr.New("memory store is unavailable")
	// ErrWriteFailed means the store rejected a create or delete
	ErrWriteFailed = goerr.New("memory write failed")
	// ErrEnrichmentFailed means the generative service gave no usable answer
	ErrEnrichmentFailed = goerr.New("enrichment failed")

	ErrInvalidCredential = goerr.New("invalid credential")
	ErrInvalidDraft      = goerr.New("invalid draft")
	ErrInvalidCategory   = goerr.New("invalid category")
	ErrMemoryNotFound    = goerr.New("memory not found")
	ErrNotLoggedIn       = goerr.New("not logged in")
	ErrPhotoNotFound     = goerr.New("photo not found")
)
