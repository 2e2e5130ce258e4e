package macos

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"
)

// parseXML decodes the old-style Apple XML plist format: a <plist>
// root wrapping one value element (<dict>, <array>, <string>, ...).
func parseXML(data []byte) (Value, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return Value{Type: PlistNull}, nil
		}
		if err != nil {
			return Value{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local == "plist" {
				continue
			}
			return decodeXMLElement(dec, start)
		}
	}
}

func decodeXMLElement(dec *xml.Decoder, start xml.StartElement) (Value, error) {
	switch start.Name.Local {
	case "dict":
		dict := make(map[string]Value)
		var pendingKey string
		for {
			tok, err := dec.Token()
			if err != nil {
				return Value{}, err
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if t.Name.Local == "key" {
					var k string
					if err := dec.DecodeElement(&k, &t); err != nil {
						return Value{}, err
					}
					pendingKey = k
					continue
				}
				v, err := decodeXMLElement(dec, t)
				if err != nil {
					return Value{}, err
				}
				if pendingKey != "" {
					dict[pendingKey] = v
					pendingKey = ""
				}
			case xml.EndElement:
				if t.Name.Local == "dict" {
					return Value{Type: PlistDictionary, Dict: dict}, nil
				}
			}
		}
	case "array":
		var arr []Value
		for {
			tok, err := dec.Token()
			if err != nil {
				return Value{}, err
			}
			switch t := tok.(type) {
			case xml.StartElement:
				v, err := decodeXMLElement(dec, t)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, v)
			case xml.EndElement:
				if t.Name.Local == "array" {
					return Value{Type: PlistArray, Arr: arr}, nil
				}
			}
		}
	case "string":
		var s string
		if err := dec.DecodeElement(&s, &start); err != nil {
			return Value{}, err
		}
		return Value{Type: PlistString, Str: s}, nil
	case "integer":
		var s string
		if err := dec.DecodeElement(&s, &start); err != nil {
			return Value{}, err
		}
		n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return Value{Type: PlistInteger, Int: n}, nil
	case "real":
		var s string
		if err := dec.DecodeElement(&s, &start); err != nil {
			return Value{}, err
		}
		f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return Value{Type: PlistReal, Real: f}, nil
	case "true":
		if err := dec.Skip(); err != nil {
			return Value{}, err
		}
		return Value{Type: PlistBoolean, Bool: true}, nil
	case "false":
		if err := dec.Skip(); err != nil {
			return Value{}, err
		}
		return Value{Type: PlistBoolean, Bool: false}, nil
	case "data":
		var s string
		if err := dec.DecodeElement(&s, &start); err != nil {
			return Value{}, err
		}
		raw, _ := base64.StdEncoding.DecodeString(strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, s))
		return Value{Type: PlistData, Data: raw}, nil
	case "date":
		var s string
		if err := dec.DecodeElement(&s, &start); err != nil {
			return Value{}, err
		}
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			return Value{Type: PlistDate}, nil
		}
		return Value{Type: PlistDate, Real: float64(t.Unix() - 978307200)}, nil
	default:
		if err := dec.Skip(); err != nil {
			return Value{}, err
		}
		return Value{Type: PlistNull}, nil
	}
}
