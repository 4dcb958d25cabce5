// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

// Wire protocol constants
const (
	MnemonicSize = 3
	ScratchSize  = 128
)

// Reply strings
const (
	ReplyACK  = "ACK"
	ReplyNACK = "NACK"
	LineEnd   = "\r\n"
)

// Validation bounds
const (
	MinFiO2 = 20.0
	MaxFiO2 = 100.0

	MinRespirationRate = 6.0
	MaxRespirationRate = 40.0
	MaxInhaleTarget    = 40.0
	MaxExhaleTarget    = 25.0

	MaxWaypointPressure = 5000.0
	MaxWaypointHoldMs   = 60000
)

// Kind identifies a command by its mnemonic.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfig
	KindStatus
	KindAlive
	KindTrigger
	KindControl
	KindCycle
	KindFiO2
	KindCurve
	KindTakeOver
	KindMinBattery
	KindTidalLow
	KindTidalHigh
	KindPressureLow
	KindPressureHigh
	KindPressureDelta
	KindFiO2Low
	KindFiO2High
	KindNonRebreathing
	KindInitPressureSensor
	KindInitPEEP
	KindInitTidalVolume
	KindAlarmReset
	KindAlarmEnable
	KindConfigSave
	KindConfigLoad
	KindSetGains
	KindSetLimits
	KindInhaleCurve
	KindExhaleCurve
	KindDrive
	KindCount
)

var mnemonics = [KindCount]string{
	KindUnknown:            "UNK",
	KindConfig:             "CFG",
	KindStatus:             "STA",
	KindAlive:              "ALI",
	KindTrigger:            "TRI",
	KindControl:            "CTL",
	KindCycle:              "CYC",
	KindFiO2:               "FIO",
	KindCurve:              "CUR",
	KindTakeOver:           "TTH",
	KindMinBattery:         "MBL",
	KindTidalLow:           "ALT",
	KindTidalHigh:          "AHT",
	KindPressureLow:        "ALP",
	KindPressureHigh:       "AHP",
	KindPressureDelta:      "ADP",
	KindFiO2Low:            "ALF",
	KindFiO2High:           "AHF",
	KindNonRebreathing:     "ANR",
	KindInitPressureSensor: "IPS",
	KindInitPEEP:           "IPV",
	KindInitTidalVolume:    "ITV",
	KindAlarmReset:         "ART",
	KindAlarmEnable:        "AEN",
	KindConfigSave:         "CSV",
	KindConfigLoad:         "CLD",
	KindSetGains:           "SGP",
	KindSetLimits:          "SLP",
	KindInhaleCurve:        "ICP",
	KindExhaleCurve:        "ECP",
	KindDrive:              "DRV",
}

// Mnemonic returns the 3-letter wire identifier.
func (k Kind) Mnemonic() string {
	if k < KindCount {
		return mnemonics[k]
	}
	return mnemonics[KindUnknown]
}

func (k Kind) String() string {
	return k.Mnemonic()
}

// Lookup maps a mnemonic to its Kind. Unrecognized input maps to KindUnknown.
func Lookup(mnemonic []byte) Kind {
	if len(mnemonic) != MnemonicSize {
		return KindUnknown
	}
	for k := KindUnknown + 1; k < KindCount; k++ {
		m := mnemonics[k]
		if mnemonic[0] == m[0] && mnemonic[1] == m[1] && mnemonic[2] == m[2] {
			return k
		}
	}
	return KindUnknown
}

// LookupString is Lookup for a string mnemonic, case-sensitive.
func LookupString(mnemonic string) Kind {
	return Lookup([]byte(mnemonic))
}

// Kinds returns every known command kind, KindUnknown excluded.
func Kinds() []Kind {
	out := make([]Kind, 0, KindCount-1)
	for k := KindUnknown + 1; k < KindCount; k++ {
		out = append(out, k)
	}
	return out
}
