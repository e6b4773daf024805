package models

import "strings"

// Timezone is one entry of the timezone picker.
type Timezone struct {
	Name        string
	Description string
}

// Label returns the zone name with underscores replaced by spaces.
func (tz Timezone) Label() string {
	return strings.ReplaceAll(tz.Name, "_", " ")
}

// Timezones are the zones offered by the settings editor.
var Timezones = []Timezone{
	{"Pacific/Honolulu", "HST (UTC-10)"},
	{"America/Anchorage", "AKST (UTC-9)"},
	{"America/Los_Angeles", "PST/PDT (UTC-8)"},
	{"America/Denver", "MST/MDT (UTC-7)"},
	{"America/Chicago", "CST/CDT (UTC-6)"},
	{"America/New_York", "EST/EDT (UTC-5)"},
	{"America/Halifax", "AST/ADT (UTC-4)"},
	{"America/Sao_Paulo", "BRT (UTC-3)"},
	{"Atlantic/South_Georgia", "GST (UTC-2)"},
	{"Atlantic/Azores", "AZOT (UTC-1)"},
	{"Europe/London", "GMT/BST (UTC+0)"},
	{"Europe/Paris", "CET/CEST (UTC+1)"},
	{"Europe/Athens", "EET/EEST (UTC+2)"},
	{"Europe/Moscow", "MSK (UTC+3)"},
	{"Asia/Dubai", "GST (UTC+4)"},
	{"Asia/Karachi", "PKT (UTC+5)"},
	{"Asia/Dhaka", "BST (UTC+6)"},
	{"Asia/Bangkok", "ICT (UTC+7)"},
	{"Asia/Singapore", "SGT (UTC+8)"},
	{"Asia/Tokyo", "JST (UTC+9)"},
	{"Australia/Sydney", "AEST/AEDT (UTC+10)"},
	{"Pacific/Noumea", "NCT (UTC+11)"},
	{"Pacific/Auckland", "NZST/NZDT (UTC+12)"},
}

// KnownTimezone returns true if name is offered by the picker.
func KnownTimezone(name string) bool {
	for _, tz := range Timezones {
		if tz.Name == name {
			return true
		}
	}
	return false
}
