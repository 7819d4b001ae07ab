package soso

// Dataset is a schema.org Dataset record. Keywords holds plain strings and
// DefinedTerm values.
type Dataset struct {
	Context             any             `json:"@context"`
	Type                string          `json:"@type"`
	ID                  string          `json:"@id"`
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	URL                 string          `json:"url"`
	Version             string          `json:"version"`
	IsAccessibleForFree bool            `json:"isAccessibleForFree"`
	DatePublished       string          `json:"datePublished,omitempty"`
	Identifier          *PropertyValue  `json:"identifier,omitempty"`
	Citation            string          `json:"citation,omitempty"`
	Keywords            []any           `json:"keywords,omitempty"`
	Creator             []Agent         `json:"creator,omitempty"`
	SpatialCoverage     []Place         `json:"spatialCoverage,omitempty"`
	TemporalCoverage    string          `json:"temporalCoverage,omitempty"`
	VariableMeasured    []PropertyValue `json:"variableMeasured,omitempty"`
	SubjectOf           *DataDownload   `json:"subjectOf,omitempty"`
	Provider            *Ref            `json:"provider,omitempty"`
	Publisher           *Ref            `json:"publisher,omitempty"`
}

// Ref is a node reference by @id.
type Ref struct {
	ID string `json:"@id"`
}

type Agent struct {
	Type  string `json:"@type"`
	ID    string `json:"@id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type DefinedTerm struct {
	Type     string `json:"@type"`
	Name     string `json:"name,omitempty"`
	TermCode string `json:"termCode,omitempty"`
	URL      string `json:"url"`
}

type PropertyValue struct {
	Type        string `json:"@type"`
	ID          string `json:"@id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	PropertyID  string `json:"propertyID,omitempty"`
	UnitText    string `json:"unitText,omitempty"`
	Value       string `json:"value,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Place is a spatial coverage. Geo is a GeoShape or GeoCoordinates.
type Place struct {
	Type        string `json:"@type"`
	Description string `json:"description,omitempty"`
	Geo         any    `json:"geo,omitempty"`
}

type GeoShape struct {
	Type    string `json:"@type"`
	Box     string `json:"box,omitempty"`
	Polygon string `json:"polygon,omitempty"`
}

type GeoCoordinates struct {
	Type      string  `json:"@type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type DataDownload struct {
	Type           string `json:"@type"`
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	EncodingFormat string `json:"encodingFormat,omitempty"`
	ContentURL     string `json:"contentUrl,omitempty"`
	DateModified   string `json:"dateModified,omitempty"`
}
