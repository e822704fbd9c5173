package clixml

// Primitive and structural tag names of the CLIXML dialect (spec §4.3).
const (
	tagString      = "S"
	tagChar        = "C"
	tagBool        = "B"
	tagDateTime    = "DT"
	tagTimeSpan    = "TS"
	tagByteArray   = "BA"
	tagGUID        = "G"
	tagURI         = "URI"
	tagVersion     = "Version"
	tagXMLDoc      = "XD"
	tagScriptBlock = "SBK"
	tagSecureStr   = "SS"
	tagNil         = "Nil"

	tagByte    = "By"
	tagSByte   = "SB"
	tagUInt16  = "U16"
	tagInt16   = "I16"
	tagUInt32  = "U32"
	tagInt32   = "I32"
	tagUInt64  = "U64"
	tagInt64   = "I64"
	tagSingle  = "Sg"
	tagDouble  = "Db"
	tagDecimal = "D"

	tagObj  = "Obj"
	tagRef  = "Ref"
	tagTN   = "TN"
	tagTNRef = "TNRef"
	tagT    = "T"
	tagToString = "ToString"
	tagProps = "Props"
	tagMS    = "MS"
	tagDCT   = "DCT"
	tagSTK   = "STK"
	tagQUE   = "QUE"
	tagLST   = "LST"
	tagIE    = "IE"
	tagEn    = "En"
	tagKey   = "Key"
	tagValue = "Value"

	attrRefID = "RefId"
	attrName  = "N"
)
