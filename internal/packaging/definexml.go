package packaging

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
)

// The following types mirror the subset of ODM 1.3.2 plus the CDISC
// define-2.0 extension spec.md §6 requires: one ItemGroupDef per domain,
// one ItemDef per variable, CodeList/CodeListItem for CT-bound variables,
// MethodDef for derived variables, CommentDef for non-standard/SUPPQUAL
// variables, and ValueListDef/WhereClauseDef for Findings-class domains.

type odm struct {
	XMLName      xml.Name     `xml:"ODM"`
	XMLNS        string       `xml:"xmlns,attr"`
	XMLNSDef     string       `xml:"xmlns:def,attr"`
	XMLNSXLink   string       `xml:"xmlns:xlink,attr"`
	FileType     string       `xml:"FileType,attr"`
	FileOID      string       `xml:"FileOID,attr"`
	CreationDate string       `xml:"CreationDateTime,attr"`
	Study        odmStudy     `xml:"Study"`
}

type odmStudy struct {
	OID             string          `xml:"OID,attr"`
	GlobalVariables  globalVariables `xml:"GlobalVariables"`
	MetaDataVersion metaDataVersion `xml:"MetaDataVersion"`
}

type globalVariables struct {
	StudyName        string `xml:"StudyName"`
	StudyDescription string `xml:"StudyDescription"`
	ProtocolName     string `xml:"ProtocolName"`
}

type metaDataVersion struct {
	OID              string            `xml:"OID,attr"`
	Name             string            `xml:"Name,attr"`
	DefineVersion    string            `xml:"def:DefineVersion,attr"`
	ItemGroupDefs    []itemGroupDef    `xml:"ItemGroupDef"`
	ItemDefs         []itemDef         `xml:"ItemDef"`
	CodeLists        []codeList        `xml:"CodeList"`
	MethodDefs       []methodDef       `xml:"MethodDef"`
	CommentDefs      []commentDef      `xml:"def:CommentDef"`
	ValueListDefs    []valueListDef    `xml:"def:ValueListDef"`
}

type itemGroupDef struct {
	OID          string          `xml:"OID,attr"`
	Name         string          `xml:"Name,attr"`
	Repeating    string          `xml:"Repeating,attr"`
	Purpose      string          `xml:"Purpose,attr"`
	SASDatasetName string        `xml:"SASDatasetName,attr"`
	ItemRefs     []itemRef       `xml:"ItemRef"`
	Leaf         defLeaf         `xml:"def:leaf"`
}

type itemRef struct {
	ItemOID  string `xml:"ItemOID,attr"`
	OrderNum int    `xml:"OrderNumber,attr"`
	Mandatory string `xml:"Mandatory,attr"`
	MethodOID string `xml:"MethodOID,attr,omitempty"`
}

type defLeaf struct {
	ID   string `xml:"ID,attr"`
	Href string `xml:"xlink:href,attr"`
	Title string `xml:"def:title"`
}

type itemDef struct {
	OID          string       `xml:"OID,attr"`
	Name         string       `xml:"Name,attr"`
	DataType     string       `xml:"DataType,attr"`
	Length       int          `xml:"Length,attr,omitempty"`
	Origin       string       `xml:"def:Origin,attr"`
	CodeListRef  *codeListRef `xml:"CodeListRef,omitempty"`
}

type codeListRef struct {
	CodeListOID string `xml:"CodeListOID,attr"`
}

type codeList struct {
	OID          string           `xml:"OID,attr"`
	Name         string           `xml:"Name,attr"`
	DataType     string           `xml:"DataType,attr"`
	CodeListItems []codeListItem  `xml:"CodeListItem"`
}

type codeListItem struct {
	CodedValue string `xml:"CodedValue,attr"`
	Decode     string `xml:"Decode>TranslatedText"`
}

type methodDef struct {
	OID              string `xml:"OID,attr"`
	Name             string `xml:"Name,attr"`
	Type             string `xml:"Type,attr"`
	FormalExpression string `xml:"FormalExpression"`
}

type commentDef struct {
	OID  string `xml:"OID,attr"`
	Text string `xml:"Description>TranslatedText"`
}

type valueListDef struct {
	OID           string          `xml:"OID,attr"`
	ItemRefs      []itemRef       `xml:"ItemRef"`
	WhereClauseDefs []whereClauseDef `xml:"def:WhereClauseDef"`
}

type whereClauseDef struct {
	OID          string `xml:"OID,attr"`
	ItemOID      string `xml:"RangeCheck>ItemOID,attr"`
	Comparator   string `xml:"RangeCheck>Comparator,attr"`
	CheckValue   string `xml:"RangeCheck>CheckValue"`
}

// BuildDefineXML assembles ItemGroupDef/ItemDef/CodeList/MethodDef/
// CommentDef/ValueListDef elements from the reviewed mapping specs and
// serializes them as an ODM 1.3.2 + define-2.0 document.
func BuildDefineXML(studyID string, specs map[string]mapping.DomainMappingSpec, domains map[string]*table.Table, domainOrder []string) ([]byte, error) {
	mdv := metaDataVersion{OID: "MDV." + studyID, Name: "Study Metadata", DefineVersion: "2.0.0"}

	seenCodelists := map[string]bool{}
	for _, domainCode := range domainOrder {
		spec, ok := specs[domainCode]
		if !ok {
			continue
		}
		ig := itemGroupDef{
			OID: "IG." + domainCode, Name: domainCode, Repeating: "Yes",
			Purpose: "Tabulation", SASDatasetName: domainCode,
			Leaf: defLeaf{ID: "LF." + domainCode, Href: tabulationsDir + "/" + strings.ToLower(domainCode) + ".xpt", Title: domainCode + " dataset"},
		}
		for i, m := range spec.VariableMappings {
			itemOID := fmt.Sprintf("IT.%s.%s", domainCode, m.SDTMVariable)
			mandatory := "No"
			if m.Core == reference.CoreReq {
				mandatory = "Yes"
			}
			var methodOID string
			if isDerivedPattern(m.MappingPattern) {
				methodOID = "MT." + domainCode + "." + m.SDTMVariable
				mdv.MethodDefs = append(mdv.MethodDefs, methodDef{
					OID: methodOID, Name: m.SDTMVariable + " derivation", Type: "Computation",
					FormalExpression: m.MappingLogic,
				})
			}
			ig.ItemRefs = append(ig.ItemRefs, itemRef{ItemOID: itemOID, OrderNum: i + 1, Mandatory: mandatory, MethodOID: methodOID})

			item := itemDef{
				OID: itemOID, Name: m.SDTMVariable,
				DataType: xmlDataType(m.SDTMDataType), Origin: string(m.Origin),
			}
			if m.CodelistCode != "" {
				item.CodeListRef = &codeListRef{CodeListOID: "CL." + m.CodelistCode}
				if !seenCodelists[m.CodelistCode] {
					seenCodelists[m.CodelistCode] = true
					mdv.CodeLists = append(mdv.CodeLists, codeList{
						OID: "CL." + m.CodelistCode, Name: m.CodelistName, DataType: "text",
					})
				}
			}
			mdv.ItemDefs = append(mdv.ItemDefs, item)

			if isNonStandard(spec, m.SDTMVariable) {
				mdv.CommentDefs = append(mdv.CommentDefs, commentDef{
					OID: "CM." + itemOID, Text: "Non-standard variable carried via SUPPQUAL per reviewed mapping",
				})
			}
		}
		mdv.ItemGroupDefs = append(mdv.ItemGroupDefs, ig)

		if spec.DomainClass == reference.ClassFindings {
			if vld := buildFindingsValueListDef(domainCode, domains[domainCode]); vld != nil {
				mdv.ValueListDefs = append(mdv.ValueListDefs, *vld)
			}
		}
	}

	doc := odm{
		XMLNS: "http://www.cdisc.org/ns/odm/v1.3", XMLNSDef: "http://www.cdisc.org/ns/def/v2.0",
		XMLNSXLink: "http://www.w3.org/1999/xlink",
		FileType: "Snapshot", FileOID: "FO." + studyID,
		Study: odmStudy{
			OID: "ST." + studyID,
			GlobalVariables: globalVariables{StudyName: studyID, StudyDescription: studyID, ProtocolName: studyID},
			MetaDataVersion: mdv,
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// buildFindingsValueListDef builds one WhereClauseDef per distinct
// --TESTCD value observed in the domain's data, so the --ORRES item's
// permissible value set is scoped per test per spec.md §6.
func buildFindingsValueListDef(domainCode string, t *table.Table) *valueListDef {
	if t == nil {
		return nil
	}
	testcdVar, orresVar := domainCode+"TESTCD", domainCode+"ORRES"
	if !t.HasColumn(testcdVar) {
		return nil
	}
	seen := map[string]bool{}
	var codes []string
	for _, row := range t.Rows {
		cd := row[testcdVar]
		if cd != "" && !seen[cd] {
			seen[cd] = true
			codes = append(codes, cd)
		}
	}
	if len(codes) == 0 {
		return nil
	}
	vld := valueListDef{OID: "VL." + domainCode + "." + orresVar}
	for _, cd := range codes {
		vld.WhereClauseDefs = append(vld.WhereClauseDefs, whereClauseDef{
			OID: "WC." + domainCode + "." + cd, ItemOID: "IT." + domainCode + "." + testcdVar,
			Comparator: "EQ", CheckValue: cd,
		})
	}
	return &vld
}

func isDerivedPattern(p mapping.Pattern) bool {
	switch p {
	case mapping.PatternDerivation, mapping.PatternReformat, mapping.PatternSplit, mapping.PatternCombine, mapping.PatternLookupRecode:
		return true
	}
	return false
}

func isNonStandard(spec mapping.DomainMappingSpec, variable string) bool {
	for _, c := range spec.SuppqualCandidates {
		if c == variable {
			return true
		}
	}
	return false
}

// xmlDataType translates an SDTM-IG data type to its ODM equivalent.
func xmlDataType(t reference.DataType) string {
	if t == reference.DataNum {
		return "float"
	}
	return "text"
}
