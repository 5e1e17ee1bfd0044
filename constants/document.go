package constants

// DocumentNature is a broad category tag on a document type.
type DocumentNature string

const (
	NatureIdentity       DocumentNature = "identity"
	NatureFinancial      DocumentNature = "financial"
	NatureLegal          DocumentNature = "legal"
	NatureMedical        DocumentNature = "medical"
	NatureGovernment     DocumentNature = "government"
	NatureEducational    DocumentNature = "educational"
	NatureCommercial     DocumentNature = "commercial"
	NatureInsurance      DocumentNature = "insurance"
	NatureRealEstate     DocumentNature = "real_estate"
	NatureHR             DocumentNature = "hr"
	NatureCorrespondence DocumentNature = "correspondence"
	NatureTechnical      DocumentNature = "technical"
	NatureOther          DocumentNature = "other"
)

// ParseNature returns the nature for a raw string, or false when unknown.
func ParseNature(s string) (DocumentNature, bool) {
	switch DocumentNature(s) {
	case NatureIdentity, NatureFinancial, NatureLegal, NatureMedical,
		NatureGovernment, NatureEducational, NatureCommercial, NatureInsurance,
		NatureRealEstate, NatureHR, NatureCorrespondence, NatureTechnical, NatureOther:
		return DocumentNature(s), true
	}
	return "", false
}

// FieldType is the data type of an extractable field.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeCurrency    FieldType = "currency"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeEmail       FieldType = "email"
	FieldTypePhone       FieldType = "phone"
	FieldTypeAddress     FieldType = "address"
	FieldTypeTable       FieldType = "table"
	FieldTypeList        FieldType = "list"
	FieldTypeEnum        FieldType = "enum"
	FieldTypeImageRegion FieldType = "image_region"
)
