// Package views holds the example's templates.
package views

import "embed"

//go:embed layout.html home blog pages errors
var FS embed.FS
