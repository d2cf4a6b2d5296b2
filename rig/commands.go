package rig

// HP 8902 measuring receiver command mnemonics. The instrument parses
// concatenated ASCII codes terminated by the bus line ending; parameter
// formats below must match the front-panel entry formats exactly.
const (
	// CmdModeRFPowerFreeRun selects the RF power measurement with free-run
	// triggering.
	CmdModeRFPowerFreeRun = "M4T0"
	// CmdZero zeroes the power sensor against its reference.
	CmdZero = "ZR"
	// CmdCalSourceOn enables the internal 50 MHz calibration source.
	CmdCalSourceOn = "C1"
	// CmdCalSourceOff disables the internal calibration source.
	CmdCalSourceOff = "C0"
	// CmdSaveCal stores the calibration into non-volatile memory.
	CmdSaveCal = "SV"
	// CmdSRQMaskArm arms the data-ready service request mask.
	CmdSRQMaskArm = "22.2SP"
	// CmdSRQMaskClear clears the service request mask.
	CmdSRQMaskClear = "22.0SP"
	// CmdStatusRead reads the status register during SRQ acknowledgement.
	CmdStatusRead = "RS"
	// CmdStatusClear clears the status byte.
	CmdStatusClear = "CS"
	// CmdOffsetOff disables the local-oscillator frequency offset path.
	CmdOffsetOff = "27.0SP"
	// CmdOffsetOn enables the local-oscillator frequency offset path.
	CmdOffsetOn = "27.1SP"
	// CmdMeterProbe triggers a settled reading; any answer accepts the
	// connection (the 8902 predates *IDN?).
	CmdMeterProbe = "T3"

	// fmtOffsetLO programs the local-oscillator frequency in MHz.
	fmtOffsetLO = "27.2SP%.2fMZ"
)

// HP 8673 signal generator command mnemonics.
const (
	// CmdSourceProbe queries the programmed output frequency; any answer
	// accepts the connection.
	CmdSourceProbe = "FROA"

	// fmtSourceFreq programs the carrier frequency in GHz.
	fmtSourceFreq = "FR%.5fGZ"
	// fmtSourceLevel programs the output level in dBm.
	fmtSourceLevel = "AP%.1fDM"
)
