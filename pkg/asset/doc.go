// Package asset generates and resolves the image files referenced by a
// layer model.
//
// The layer tree builder never touches the filesystem. Instead it returns
// a list of [Request] values describing the files each layer refers to; a
// [Runner] executes them concurrently and joins on a single barrier before
// the model is written.
//
// Every request writes to paths derived from its directory and name:
//
//	images/<name>.<ext>        image_path
//	images/thumb_<name>.png    thumb_image_path
//	images/crop_<name>.png     crop_image_path (trimmed)
//	images/raw_<name>.svg      svg_path (vector requests only)
//	images/<name>.svg          cropped vector source
//
// Remote and embedded image references are resolved through a [Fetcher]
// backed by a [cache.Cache]; decoder archives are read through [Archive].
package asset
