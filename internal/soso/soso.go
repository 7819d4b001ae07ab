// Package soso renders EML documents as schema.org Dataset JSON-LD following
// the Science On Schema.Org guidelines, so annotated packages can be
// harvested and merged into a knowledge graph.
package soso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/agenthands/weft/internal/core/curie"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/eml"
)

const (
	DefaultPastaURL  = "https://pasta.lternet.edu"
	DefaultPortalURL = "https://portal.edirepository.org/nis/mapbrowse"
	DefaultDOIURL    = "https://doi.org"
	DefaultProvider  = "https://edirepository.org"

	doiRegistry      = "https://registry.identifiers.org/registry/doi"
	citationAccept   = "text/x-bibliography; style=apa; locale=en-US"
	maxResponseSize  = 1 << 20
	measurementsType = "containsMeasurementsOfType"
)

// Context is the JSON-LD context of every generated dataset.
var Context = map[string]any{"@vocab": "https://schema.org/"}

// Converter builds Dataset records. The zero value converts offline against
// the EDI endpoints.
type Converter struct {
	HTTP      *http.Client
	PastaURL  string
	PortalURL string
	DOIURL    string
	Provider  string
	Publisher string
	// LookupDOI asks PASTA for the package DOI and doi.org for a citation.
	LookupDOI bool
	Logger    *slog.Logger
}

func NewConverter(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		PastaURL:  DefaultPastaURL,
		PortalURL: DefaultPortalURL,
		DOIURL:    DefaultDOIURL,
		Provider:  DefaultProvider,
		Publisher: DefaultProvider,
		Logger:    logger,
	}
}

// Convert renders doc. The packageId must have the scope.identifier.revision
// form; anything else is reported as model.ErrMalformedDocument.
func (c *Converter) Convert(ctx context.Context, doc *eml.Document) (*Dataset, error) {
	pid := doc.PackageID()
	parts := strings.Split(pid, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: packageId %q is not scope.identifier.revision", model.ErrMalformedDocument, pid)
	}
	scope, identifier, revision := parts[0], parts[1], parts[2]

	dataset, ok := doc.Root().Child("dataset")
	if !ok {
		return nil, fmt.Errorf("%w: %s has no dataset element", model.ErrMalformedDocument, pid)
	}

	q := url.Values{}
	q.Set("scope", scope)
	q.Set("identifier", identifier)
	q.Set("revision", revision)
	landing := c.portalURL() + "?" + q.Encode()

	ds := &Dataset{
		Context:             Context,
		Type:                "Dataset",
		ID:                  landing,
		Name:                dataset.ChildText("title"),
		Description:         dataset.ChildText("abstract"),
		URL:                 landing,
		Version:             revision,
		IsAccessibleForFree: true,
		DatePublished:       dataset.ChildText("pubDate"),
		Keywords:            keywords(doc, dataset),
		Creator:             agents(children(dataset, "creator")),
		SpatialCoverage:     places(doc.GeographicCoverages()),
		TemporalCoverage:    temporal(dataset),
		VariableMeasured:    variables(doc),
	}
	if c.Provider != "" {
		ds.Provider = &Ref{ID: c.Provider}
	}
	if c.Publisher != "" {
		ds.Publisher = &Ref{ID: c.Publisher}
	}
	if format := doc.Root().NamespaceURI(); format != "" {
		ds.SubjectOf = &DataDownload{
			Type:           "DataDownload",
			Name:           "EML metadata for dataset",
			Description:    "EML metadata describing the dataset",
			EncodingFormat: format,
			ContentURL:     fmt.Sprintf("%s/package/metadata/eml/%s/%s/%s", c.pastaURL(), scope, identifier, revision),
			DateModified:   ds.DatePublished,
		}
	}

	if c.LookupDOI {
		c.addDOI(ctx, ds, scope, identifier, revision)
	}
	return ds, nil
}

func (c *Converter) addDOI(ctx context.Context, ds *Dataset, scope, identifier, revision string) {
	endpoint := fmt.Sprintf("%s/package/doi/eml/%s/%s/%s", c.pastaURL(), scope, identifier, revision)
	body, err := c.get(ctx, endpoint, "text/plain")
	if err != nil {
		c.logger().Warn("doi lookup failed", "url", endpoint, "error", err)
		return
	}
	// PASTA answers "doi:10.6073/pasta/...".
	_, value, found := strings.Cut(strings.TrimSpace(string(body)), ":")
	if !found || value == "" {
		c.logger().Warn("unexpected doi response", "url", endpoint, "body", string(body))
		return
	}
	doi := strings.TrimRight(c.doiURL(), "/") + "/" + value
	ds.Identifier = &PropertyValue{
		Type:       "PropertyValue",
		ID:         doi,
		PropertyID: doiRegistry,
		Value:      value,
		URL:        doi,
	}

	citation, err := c.get(ctx, doi, citationAccept)
	if err != nil {
		c.logger().Warn("citation lookup failed", "doi", doi, "error", err)
		return
	}
	ds.Citation = strings.TrimSpace(string(citation))
}

func (c *Converter) get(ctx context.Context, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}

// Marshal renders ds as indented JSON-LD.
func Marshal(ds *Dataset) ([]byte, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile converts doc and writes <packageId>.json into dir.
func (c *Converter) WriteFile(ctx context.Context, doc *eml.Document, dir string) (string, error) {
	ds, err := c.Convert(ctx, doc)
	if err != nil {
		return "", err
	}
	data, err := Marshal(ds)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, doc.PackageID()+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write dataset '%s': %w", path, err)
	}
	return path, nil
}

// ConvertDir writes a JSON-LD file for every .xml document in emlDir.
// Documents whose output already exists in outDir are skipped. Failures are
// collected per file and do not stop the run.
func (c *Converter) ConvertDir(ctx context.Context, emlDir, outDir string) (written []string, failed map[string]error, err error) {
	entries, err := os.ReadDir(emlDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input directory '%s': %w", emlDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory '%s': %w", outDir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".xml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	failed = make(map[string]error)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return written, failed, err
		}
		stem := strings.TrimSuffix(name, ".xml")
		if _, err := os.Stat(filepath.Join(outDir, stem+".json")); err == nil {
			c.logger().Debug("dataset already exists", "document", stem)
			continue
		}
		doc, err := eml.LoadFile(filepath.Join(emlDir, name))
		if err != nil {
			failed[name] = err
			continue
		}
		path, err := c.WriteFile(ctx, doc, outDir)
		if err != nil {
			failed[name] = err
			continue
		}
		c.logger().Info("wrote dataset", "document", stem, "path", path)
		written = append(written, path)
	}
	return written, failed, nil
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Converter) pastaURL() string {
	return strings.TrimRight(or(c.PastaURL, DefaultPastaURL), "/")
}

func (c *Converter) portalURL() string {
	return or(c.PortalURL, DefaultPortalURL)
}

func (c *Converter) doiURL() string {
	return or(c.DOIURL, DefaultDOIURL)
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// keywords lists the keyword texts followed by the dataset's semantic
// annotations as defined terms.
func keywords(doc *eml.Document, dataset eml.Node) []any {
	var res []any
	for _, k := range dataset.Descendants("keyword") {
		if text := k.Content(); text != "" {
			res = append(res, text)
		}
	}
	for _, a := range doc.Annotations(dataset) {
		if a.Malformed() {
			continue
		}
		res = append(res, DefinedTerm{
			Type:     "DefinedTerm",
			Name:     a.ValueLabel,
			TermCode: curie.Compress(a.ValueURI),
			URL:      a.ValueURI,
		})
	}
	return res
}

func children(n eml.Node, kind string) []eml.Node {
	var res []eml.Node
	for _, c := range n.Children() {
		if c.Kind() == kind {
			res = append(res, c)
		}
	}
	return res
}

func agents(nodes []eml.Node) []Agent {
	var res []Agent
	for _, n := range nodes {
		a := Agent{Email: n.ChildText("electronicMailAddress")}
		if name, ok := n.Child("individualName"); ok {
			a.Type = "Person"
			var parts []string
			for _, g := range name.Descendants("givenName") {
				parts = append(parts, g.Content())
			}
			a.Name = strings.TrimSpace(strings.Join(append(parts, name.ChildText("surName")), " "))
		} else if org := n.ChildText("organizationName"); org != "" {
			a.Type, a.Name = "Organization", org
		} else if pos := n.ChildText("positionName"); pos != "" {
			a.Type, a.Name = "Person", pos
		} else {
			continue
		}
		for _, u := range n.Descendants("userId") {
			if id := orcid(u); id != "" {
				a.ID = id
				break
			}
		}
		res = append(res, a)
	}
	return res
}

// orcid returns the userId as an ORCID IRI, or "" for other directories.
func orcid(u eml.Node) string {
	value := u.Content()
	dir := u.SelectAttrValue("directory", "")
	if !strings.Contains(dir, "orcid.org") && !strings.Contains(value, "orcid.org") {
		return ""
	}
	if strings.HasPrefix(value, "http") {
		return value
	}
	return "https://orcid.org/" + strings.TrimPrefix(value, "/")
}

func places(coverages []eml.Coverage) []Place {
	var res []Place
	for _, c := range coverages {
		p := Place{Type: "Place", Description: c.Description()}
		b, ok := c.Bounds()
		switch c.GeomType() {
		case eml.GeomPolygon:
			if ring, valid := polygon(c.OuterRing()); valid {
				p.Geo = GeoShape{Type: "GeoShape", Polygon: ring}
			} else if ok {
				p.Geo = box(b)
			}
		case eml.GeomPoint:
			p.Geo = GeoCoordinates{Type: "GeoCoordinates", Latitude: b.North, Longitude: b.West}
		case eml.GeomEnvelope:
			p.Geo = box(b)
		}
		if p.Geo == nil && p.Description == "" {
			continue
		}
		res = append(res, p)
	}
	return res
}

// box is "south west north east", the lower corner first.
func box(b eml.Bounds) GeoShape {
	return GeoShape{Type: "GeoShape", Box: strings.Join([]string{
		num(b.South), num(b.West), num(b.North), num(b.East),
	}, " ")}
}

// polygon converts an EML ring of "lon,lat" pairs to schema.org's
// space-separated "lat lon" points, closing the ring when needed.
func polygon(ring string) (string, bool) {
	var points []string
	for _, pair := range strings.Fields(ring) {
		lon, lat, found := strings.Cut(pair, ",")
		if !found {
			return "", false
		}
		if _, err := strconv.ParseFloat(lon, 64); err != nil {
			return "", false
		}
		if _, err := strconv.ParseFloat(lat, 64); err != nil {
			return "", false
		}
		points = append(points, lat+" "+lon)
	}
	if len(points) < 3 {
		return "", false
	}
	if points[0] != points[len(points)-1] {
		points = append(points, points[0])
	}
	return strings.Join(points, " "), true
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// temporal returns the first temporal coverage as an ISO 8601 date or
// interval.
func temporal(dataset eml.Node) string {
	for _, t := range dataset.Descendants("temporalCoverage") {
		if r, ok := t.Child("rangeOfDates"); ok {
			begin, end := r.DescendantText("beginDate"), r.DescendantText("endDate")
			if begin != "" && end != "" {
				return begin + "/" + end
			}
		}
		if s, ok := t.Child("singleDateTime"); ok {
			if d := s.ChildText("calendarDate"); d != "" {
				return d
			}
		}
	}
	return ""
}

func variables(doc *eml.Document) []PropertyValue {
	var res []PropertyValue
	for _, attr := range doc.Elements("attribute") {
		v := PropertyValue{
			Type:        "PropertyValue",
			Name:        attr.ChildText("attributeName"),
			Description: attr.ChildText("attributeDefinition"),
			UnitText:    attr.DescendantText("standardUnit"),
		}
		if v.UnitText == "" {
			v.UnitText = attr.DescendantText("customUnit")
		}
		for _, a := range doc.Annotations(attr) {
			if !a.Malformed() && strings.HasSuffix(a.PropertyURI, measurementsType) {
				v.PropertyID = a.ValueURI
				break
			}
		}
		if v.Name == "" {
			continue
		}
		res = append(res, v)
	}
	return res
}
