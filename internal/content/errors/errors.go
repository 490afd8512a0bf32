package errors

// Package errors provides sentinel errors for content discovery.
// Callers match them with errors.Is to classify discovery failures.

import "errors"

var (
	// ErrContentWalkFailed indicates filesystem traversal of the content tree failed.
	ErrContentWalkFailed = errors.New("content directory walk failed")

	// ErrFileReadFailed indicates reading a discovered content file failed.
	ErrFileReadFailed = errors.New("content file read failed")

	// ErrFrontMatterInvalid indicates a content file has a malformed front-matter
	// fence, an undecodable block, or a block that is not a mapping.
	ErrFrontMatterInvalid = errors.New("invalid front matter")

	// ErrUnknownContentType indicates front matter names a type that is not configured.
	ErrUnknownContentType = errors.New("unknown content type")

	// ErrInvalidRelativePath indicates calculating a path relative to the content root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")
)
