package services

import "errors"

// User-surfaced failure conditions. Handlers convert these to inline
// messages; nothing here is fatal to the process.
var (
	ErrNotAuthenticated = errors.New("you must be logged in")
	ErrProfileFetch     = errors.New("failed to fetch profile")
	ErrProfileWrite     = errors.New("failed to update profile")
	// ErrSessionExpired maps the backend's permission denial to the
	// "please log in again" condition.
	ErrSessionExpired = errors.New("unable to write profile, please try logging in again")
	ErrImageRequired  = errors.New("please select an image to upload")
	ErrImageTooLarge  = errors.New("file size exceeds 5MB limit")
	ErrImageBadType   = errors.New("invalid file type, please upload a JPEG, PNG, or GIF image")
)
