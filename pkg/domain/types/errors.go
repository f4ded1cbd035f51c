package types

import "github.com/m-mizutani/goerr/v2"

// Error categories. Every failure surfaced by a usecase carries exactly one of them.
var (
	ErrTagConfig     = goerr.NewTag("config")
	ErrTagSetup      = goerr.NewTag("setup")
	ErrTagConversion = goerr.NewTag("conversion")
	ErrTagUpload     = goerr.NewTag("upload")
)
