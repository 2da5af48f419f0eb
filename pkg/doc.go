// Package pkg provides the core libraries of mockup.
//
// # Overview
//
// Mockup turns a layered design (SVG, or PSD through an external decoder)
// into an addressable mockup template: backgrounds, color swatches, size
// variants, vector groups and editable text. A template can then be
// customized and composited into raster or vector output, and independent
// designs can be packed onto shared sheets.
//
// # Architecture
//
// The typical data flow:
//
//	SVG / PSD
//	    ↓
//	[svgdoc] + [extract]   (raw nodes → classified layer tree + asset requests)
//	    ↓
//	[asset]                (swatches, crops, thumbnails, labels)
//	    ↓
//	[normalize]            (non-negative coordinates, document size)
//	    ↓
//	[layer] psd_data.json
//	    ↓
//	[session]              (selection, relations, scales)
//	    ↓
//	[composite] / [merge] / [svgexport]
//
// [pipeline] runs these stages for the CLI and the HTTP API alike and wraps
// their outcome in the {success, message, data} reply.
//
// # Quick Start
//
// Decode an SVG and export its default selection:
//
//	r := pipeline.NewRunner(pipeline.Options{}, nil, nil)
//	res, err := r.Decode(ctx, "designs/shirt.svg")
//	if err != nil {
//	    return err
//	}
//	st, err := session.New(res.Document, session.Options{})
//	if err != nil {
//	    return err
//	}
//	req, err := st.ExportRequest("shirt.png", 0)
//	if err != nil {
//	    return err
//	}
//	out, err := r.Export(ctx, req)
//
// # Main Packages
//
// ## Model
//
// [layer] - The layer tree, its JSON codec and structural validation.
//
// [naming] - Classification of layer names into roles, hashtags and
// at-links; sidebar ordering.
//
// [transform] - SVG transform parsing and affine helpers.
//
// ## Building
//
// [svgdoc], [extract], [normalize], [asset] and [decoder] turn design files
// into layer models.
//
// ## Output
//
// [pack] is the shelf packer behind [merge]. [composite] renders export
// requests, [svgexport] writes the standalone SVG download.
//
// ## Infrastructure
//
// [cache] (file, Redis, null), [templates] (HTTP API, MongoDB), [config],
// [httputil], [errors], [observability], [fonts] and [buildinfo].
//
// # Testing
//
//	go test ./...
package pkg
