// Package orderkey derives fractional order keys.
//
// An order key is a float64 sort value. New keys are placed between two
// neighbours by taking their midpoint at a fixed number of decimal digits
// (the precision). When the midpoint is not strictly inside the interval
// the caller has run out of room and must renumber the whole list.
//
// Midpoints are computed with exact decimal arithmetic so rounding follows
// the decimal text of the keys rather than their binary approximation:
//
//	orderkey.Midpoint(1, 2, 4)   // 1.6
//	orderkey.Midpoint(1, 1.2, 4) // 1.1
//
// The last retained digit is nudged to an even value when that keeps the
// key inside the interval. An even digit leaves room for one more halving
// at the same precision before the interval is exhausted.
package orderkey
