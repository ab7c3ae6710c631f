package validator

// Luhn reports whether the consumed digits pass the standard mod-10 check.
func Luhn(st *State) bool {
	if st.Digits < 2 {
		return false
	}
	return st.LuhnSum()%10 == 0
}

// Card is Luhn restricted to payment card lengths (13..19 digits) and to
// the leading digits of the major issuers: 2 (Mastercard 2-series),
// 3 (Amex, Diners, JCB), 4 (Visa), 5 (Mastercard), 6 (Discover, UnionPay).
func Card(st *State) bool {
	if st.Digits < 13 || st.Digits > 19 {
		return false
	}
	switch st.LeadingDigit() {
	case 2, 3, 4, 5, 6:
	default:
		return false
	}
	return Luhn(st)
}

// SSN validates a nine digit US social security number.
// Area cannot be 000, 666 or 900-999; group cannot be 00; serial cannot be 0000.
func SSN(st *State) bool {
	if st.Digits != 9 {
		return false
	}
	area := st.Lead / 1000000
	group := (st.Lead / 10000) % 100
	serial := st.Lead % 10000

	if area == 0 || area == 666 || area >= 900 {
		return false
	}
	return group != 0 && serial != 0
}
