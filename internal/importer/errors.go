package importer

import "errors"

// ErrMalformedFile is returned for rule files that are not a JSON array.
var ErrMalformedFile = errors.New("malformed rules file")
