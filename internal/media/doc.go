// Package media implements the media selector: it turns the paths handed over
// by a drop or file pick into at most one candidate Asset and rejects
// anything whose declared media type is not a video type.
package media
