/*
Copyright © 2024 the firedanger authors.
This file is part of firedanger.

firedanger is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

firedanger is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with firedanger.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package fwi implements the Canadian Forest Fire Weather Index system
// (FFMC/DMC/DC/ISI/BUI/FWI/IFWI), ported from
// original_source/src/lib/modules/fwi/{models,functions,constants}.rs.
package fwi

// Ported verbatim from original_source/src/lib/modules/fwi/constants.rs.
const (
	ffmcInit = 85.0
	dmcInit  = 6.0
	dcInit   = 15.0

	timeWindowHours = 24

	ffmcS1 = 147.2
	ffmcS2 = 59.4688
	ffmcS3 = 59.5

	ffmcMinRain     = 0.5
	ffmcNormalCond  = 150.0
	ffmcR1          = 42.5
	ffmcR2          = 6.93
	ffmcR3          = 0.0015
	ffmcR4          = 2.0
	ffmcR5          = 0.5

	ffmcA1D = 0.942
	ffmcA2D = 0.679
	ffmcA3D = 11.0
	ffmcA4D = 0.18
	ffmcA5D = 0.115
	ffmcA1W = 0.618
	ffmcA2W = 0.753
	ffmcA3W = 10.0
	ffmcA4W = 0.18
	ffmcA5W = 0.115
	ffmcB1  = 0.424
	ffmcB2  = 1.7
	ffmcB3  = 0.0694
	ffmcB4  = 0.5
	ffmcB5  = 8.0
	ffmcB6  = 0.581
	ffmcB7  = 0.0365

	dmcMinRain = 1.5
	dmcA1      = 33.0
	dmcA2      = 65.0
	dmcR1      = 0.92
	dmcR2      = 1.27
	dmcR3      = 0.5
	dmcR4      = 0.3
	dmcR5      = 14.0
	dmcR6      = 1.3
	dmcR7      = 6.2
	dmcR8      = 17.2
	dmcR9      = 20.0
	dmcR10     = 244.72
	dmcR11     = 43.43
	dmcR12     = 48.77

	dmcMinTemp = -1.1
	dmcT1      = 1.894
	dmcT2      = 1.1

	dcMinRain = 2.8
	dcR1      = 0.83
	dcR2      = 1.27
	dcR3      = 800.0
	dcR4      = 400.0
	dcR5      = 3.937

	dcMinTemp = 0.0
	dcT1      = 0.36
	dcT2      = 2.8
	dcT3      = 0.5

	isiA0 = 0.05039
	isiA1 = 91.9
	isiA2 = -0.1386
	isiA3 = 5.31
	isiA4 = 4.93
	isiA5 = 0.208

	buiA1 = 0.4
	buiA2 = 0.8
	buiA3 = 0.92
	buiA4 = 0.0114
	buiA5 = 1.7

	fwiA1 = 0.626
	fwiA2 = 0.809
	fwiA3 = 2.0
	fwiA4 = 25.0
	fwiA5 = 108.64
	fwiA6 = -0.023
	fwiA7 = 2.72
	fwiA8 = 0.434
	fwiA9 = 0.647

	ifwiA1 = 0.98
	ifwiA2 = 1.546
	ifwiA3 = 0.289
)

// monthlyLe and monthlyLf are the Canadian Forest Fire Weather Index
// System's published day-length adjustment tables for DMC and DC
// (Van Wagner 1987, mid-latitude table), indexed by month (1=January).
// The filtered original_source/fwi/functions.rs is truncated before its
// day-length lookup is defined, so these are supplemented from the
// standard published CFFWIS tables rather than ported; see DESIGN.md.
var monthlyLe = [13]float32{0,
	6.5, 7.5, 9.0, 12.8, 13.9, 13.9,
	12.4, 10.9, 9.4, 8.0, 7.0, 6.0,
}

var monthlyLf = [13]float32{0,
	-1.6, -1.6, -1.6, 0.9, 3.8, 5.8,
	6.4, 5.0, 2.4, 0.4, -1.6, -1.6,
}
