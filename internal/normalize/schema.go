package normalize

import (
	"github.com/invopop/jsonschema"

	"github.com/AI2HU/heatmap/internal/models"
)

// RecordSchema describes one upstream response row. Unknown properties are allowed
// since extra columns pass through as metadata.
func RecordSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(models.RawRecord{})
	schema.Title = "Response record"
	schema.Description = "One AI model response to one prompt in one execution week"
	return schema
}

// ExportSchema describes a JSON export accepted by DecodeRecords: an array of rows
func ExportSchema() *jsonschema.Schema {
	item := RecordSchema()
	item.Version = ""
	return &jsonschema.Schema{
		Version: jsonschema.Version,
		Title:   "Response record export",
		Type:    "array",
		Items:   item,
	}
}
