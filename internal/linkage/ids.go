// Package linkage joins primary product documents with ancillary catalog records using keys
// derived from document ids.
package linkage

import (
	"strings"
)

// BaseID strips the last dot-delimited segment (extension or band marker) from id. An id
// without a dot is returned unchanged.
func BaseID(id string) string {
	i := strings.LastIndex(id, ".")
	if i < 0 {
		return id
	}
	return id[:i]
}

// StripExtension removes a file extension from a catalog file name.
func StripExtension(name string) string {
	return BaseID(name)
}

// StripRevision removes a trailing "-<digits>" revision marker. Nothing else is touched.
func StripRevision(id string) string {
	i := strings.LastIndex(id, "-")
	if i < 0 || i == len(id)-1 {
		return id
	}
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}
	return id[:i]
}

// RevisionBaseID is the coarser key: the base id with its revision marker removed.
func RevisionBaseID(id string) string {
	return StripRevision(BaseID(id))
}

// GranuleIDToTileID returns the MGRS tile of an HLS granule id, e.g. T22VEQ for
// HLS.L30.T22VEQ.2021248T143156.v2.0.
func GranuleIDToTileID(granuleID string) string {
	parts := strings.Split(granuleID, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// GranuleIDToAcquisitionTS returns the day-of-year acquisition stamp of an HLS granule id.
func GranuleIDToAcquisitionTS(granuleID string) string {
	parts := strings.Split(granuleID, ".")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

// SDSProductType derives the short product type (e.g. L3_DSWX_HLS) from a generated product
// id. Known types are matched by prefix first so multi-token types stay intact.
func SDSProductType(productID string, known []string) string {
	name := strings.TrimPrefix(productID, "OPERA_")
	upper := strings.ToUpper(name)
	for _, k := range known {
		if strings.HasPrefix(upper, strings.ToUpper(k)+"_") || upper == strings.ToUpper(k) {
			return strings.ToUpper(k)
		}
	}

	tokens := strings.Split(productID, "_")
	if len(tokens) < 4 || tokens[0] != "OPERA" {
		return ""
	}
	return strings.ToUpper(strings.Join(tokens[1:4], "_"))
}

// Sensor names the platform family that acquired the input of a product id.
func Sensor(productID string) string {
	switch {
	case strings.Contains(productID, "_S2A"), strings.Contains(productID, "_S2B"),
		strings.Contains(productID, "_SENTINEL-2"):
		return "SENTINEL"
	case strings.Contains(productID, "_L8"), strings.Contains(productID, "_L9"),
		strings.Contains(productID, "_LANDSAT-"):
		return "LANDSAT"
	default:
		return ""
	}
}
