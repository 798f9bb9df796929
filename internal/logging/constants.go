package logging

// Field names shared by every package so log output stays filterable.
const (
	FieldFile       = "file_path"
	FieldStage      = "stage"
	FieldMethod     = "method"
	FieldPattern    = "pattern"
	FieldLineNumber = "line_number"
	FieldLine       = "line"
	FieldCategory   = "category"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldProvider   = "provider"
	FieldModel      = "model"
	FieldMIMEType   = "mime_type"
	FieldRequestID  = "request_id"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
	FieldFormat     = "format"
)
