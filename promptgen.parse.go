package promptgen

import (
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseDocument parses and validates one document from raw bytes.
// docPath is the store path the bytes came from; it seeds SourcePath,
// the fallback name, and the base directory of relative import refs.
func ParseDocument(data []byte, docPath string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewParseError(ErrMsgParseFailed, docPath, err)
	}

	doc.SourcePath = path.Clean(docPath)
	if doc.Name == "" {
		doc.Name = nameFromPath(doc.SourcePath)
	}

	if doc.Kind == "" {
		doc.Kind = inferKind(&doc)
	} else if !IsValidKind(string(doc.Kind)) {
		return nil, NewFieldError(ErrMsgUnknownKind, doc.SourcePath, FieldKind)
	}

	dir := path.Dir(doc.SourcePath)
	for name, spec := range doc.Imports {
		doc.Imports[name] = spec.withBaseDir(dir)
	}

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// validateDocument enforces the structural invariants of each kind.
// Violations are fatal load-time errors.
func validateDocument(doc *Document) error {
	switch doc.Kind {
	case KindTemplate:
		if doc.Body == "" {
			return NewFieldError(ErrMsgEmptyBody, doc.SourcePath, FieldBody)
		}
		switch n := strings.Count(doc.Body, TokenPrompt); {
		case n == 0:
			return NewFieldError(ErrMsgMissingInjection, doc.SourcePath, FieldBody)
		case n > 1:
			return NewFieldError(ErrMsgMultipleInjection, doc.SourcePath, FieldBody)
		}

	case KindChunk:
		for _, token := range []string{TokenPrompt, TokenNegPrompt, TokenLoras} {
			if strings.Contains(doc.Body, token) {
				return NewReservedTokenError(doc.SourcePath, token)
			}
		}
		if doc.Body == "" && doc.ParentRef == "" {
			return NewFieldError(ErrMsgMissingField, doc.SourcePath, FieldBody)
		}

	case KindPrompt:
		if doc.Body == "" && doc.ParentRef == "" {
			return NewFieldError(ErrMsgMissingField, doc.SourcePath, FieldBody)
		}

	case KindTheme:
		// themes carry imports only; an empty import set is legal
	}

	if doc.ParentRef != "" && path.IsAbs(doc.ParentRef) {
		return NewAbsoluteParentError(doc.SourcePath, doc.ParentRef)
	}
	return nil
}

// nameFromPath derives a document name from its file name.
func nameFromPath(p string) string {
	base := path.Base(p)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

// resolveRef resolves a relative document reference against the
// directory of the referring file. Store paths use forward slashes.
func resolveRef(baseDir, ref string) string {
	if path.IsAbs(ref) {
		return path.Clean(ref)
	}
	return path.Join(baseDir, ref)
}
