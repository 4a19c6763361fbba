// Package query builds the SPARQL texts sent to the lineage and geometry
// endpoints. Builders are pure string formatting and never fail.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goudatijdmachine/filiatie/pkg/common"
)

var ErrUnknownRelation = errors.New("unknown relation")

// ParseRelation maps a relation name onto the closed set of lineage
// predicates. Anything else is rejected so callers cannot splice arbitrary
// predicate text into a query.
func ParseRelation(name string) (common.Relation, error) {
	for _, r := range common.Relations {
		if string(r) == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRelation, name)
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// LineageGraph returns a CONSTRUCT query yielding every opgegaanIn edge
// reachable from startURI in either direction, together with the hasGeo
// discriminator of both endpoints.
func LineageGraph(startURI common.ParcelURI) string {
	return fmt.Sprintf(`PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX gtm: <https://www.goudatijdmachine.nl/def#>

CONSTRUCT {
  ?a gtm:opgegaanIn ?b .
  ?a gtm:hasGeo ?geoa .
  ?b gtm:hasGeo ?geob .
}
WHERE {
  VALUES ?start { <%s> }
  {
    ?start (gtm:opgegaanIn)* ?a .
    ?a gtm:opgegaanIn ?b .
  }
  UNION
  {
    ?a gtm:opgegaanIn ?b .
    ?b (gtm:opgegaanIn)* ?start .
  }
  ?a rdf:type gtm:Perceel .
  ?b rdf:type gtm:Perceel .
  OPTIONAL {
    ?a gtm:hasGeo ?geoa .
  }
  OPTIONAL {
    ?b gtm:hasGeo ?geob .
  }
}`, startURI)
}

// GeometryByIdentifier returns a SELECT query for the WKT geometry of the
// resource whose schema.org identifier equals id.
func GeometryByIdentifier(id string) string {
	return fmt.Sprintf(`PREFIX sdo: <https://schema.org/>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
PREFIX geo: <http://www.opengis.net/ont/geosparql#>

SELECT ?wkt
WHERE {
  ?sub <https://schema.org/identifier> "%s"^^xsd:string ;
       geo:hasGeometry/geo:asWKT ?wkt .
}`, escapeLiteral(id))
}

// RelationBindings returns a SELECT DISTINCT query for every (bron, doel)
// edge of relation reachable from startURI.
func RelationBindings(startURI common.ParcelURI, relation common.Relation) string {
	return fmt.Sprintf(`PREFIX gtm: <https://www.goudatijdmachine.nl/def#>
SELECT DISTINCT ?bron ?doel WHERE {
    VALUES ?start { <%s> }
    ?start gtm:%s* ?bron .
    ?bron gtm:%s ?doel .
}`, startURI, relation, relation)
}
