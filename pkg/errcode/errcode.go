package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	CreateLogFileError

	// Database errors
	DBConnectionError
	DBUnsupportedURLError
	DBTableCheckError
	DBNotConnectedError
	DBTableExistsCheckError
	DBQueryTablesError
	DBScanTableError
	DBDropTableError
	DBExecError
	DBQueryError

	// Schema errors
	SchemaDefinitionError
	SchemaDuplicateTableError
	SchemaGORMConnectionError
	SchemaCreateError
	SchemaDropError
	SchemaVersionError
	SchemaVersionMismatchError

	// Ingest errors
	IngestUnknownTableError
	IngestUnknownColumnError
	IngestValueError
	IngestEmptyTableNameError
	IngestClosedError
	IngestRowError

	// Input errors
	InputFormatError
	InputParseError
	InputS3Error

	// Manifest errors
	ManifestLoadError
	ManifestFilterError

	// Roots errors
	RootsWriteError
	RootsReadError
	RootsUnsupportedError

	// Service errors
	ServerError
	BusConnectionError
	MetricsTextfileError
)
