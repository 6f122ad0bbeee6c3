// Package extract turns a document on disk into text plus forensic metadata.
//
// PDFs are read with poppler's pdftotext and, when no text layer exists,
// rasterized with pdftoppm and passed through tesseract. Document metadata
// comes from pdfcpu. Word files are read directly from their OOXML parts.
// Images are OCRed with tesseract and their EXIF block is parsed with
// go-exif.
//
// External commands run through the Runner interface so tests can stub
// them. Extract never returns an error: failures become text in the result
// so the rest of the pipeline always has something to reason about.
package extract
