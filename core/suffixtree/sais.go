package suffixtree

import "slices"

// ranks maps text onto the dense alphabet [0, k) keeping the rune order.
func ranks(text []rune) ([]int32, int) {
	alpha := slices.Clone(text)
	slices.Sort(alpha)
	alpha = slices.Compact(alpha)
	out := make([]int32, len(text))
	for i, r := range text {
		k, _ := slices.BinarySearch(alpha, r)
		out[i] = int32(k)
	}
	return out, len(alpha)
}

// sais computes the suffix array of text, whose characters lie in [0, k),
// by induced sorting. The LMS suffixes are sorted first, recursing on the
// string of LMS-substring names when those names are not unique, and the
// order of every other suffix is induced from them.
//
// A position i is type S if text[i] < text[i+1], or if the two are equal and
// i+1 is type S; otherwise it is type L. The empty suffix past the end sorts
// first, so the final position is type L. An LMS position is a type S
// position preceded by a type L one.
func sais(text []int32, k int) []int32 {
	n := len(text)
	sa := make([]int32, n)
	if n < 2 {
		return sa
	}

	stype := make([]bool, n)
	for i := n - 2; i >= 0; i-- {
		stype[i] = text[i] < text[i+1] || text[i] == text[i+1] && stype[i+1]
	}
	isLMS := func(i int32) bool { return i > 0 && stype[i] && !stype[i-1] }

	freq := make([]int32, k)
	for _, c := range text {
		freq[c]++
	}
	bucket := make([]int32, k)
	bucketMin := func() {
		var sum int32
		for c, f := range freq {
			bucket[c] = sum
			sum += f
		}
	}
	bucketMax := func() {
		var sum int32
		for c, f := range freq {
			sum += f
			bucket[c] = sum
		}
	}

	// induce places lms at the ends of their buckets, then induces the
	// type L suffixes left to right and the type S suffixes right to left.
	// When lms is sorted the result is the suffix array; otherwise the LMS
	// substrings still come out sorted.
	induce := func(lms []int32) {
		for i := range sa {
			sa[i] = -1
		}
		bucketMax()
		for i := len(lms) - 1; i >= 0; i-- {
			c := text[lms[i]]
			bucket[c]--
			sa[bucket[c]] = lms[i]
		}

		bucketMin()
		last := int32(n - 1)
		sa[bucket[text[last]]] = last
		bucket[text[last]]++
		for i := 0; i < n; i++ {
			j := sa[i] - 1
			if j >= 0 && !stype[j] {
				c := text[j]
				sa[bucket[c]] = j
				bucket[c]++
			}
		}

		bucketMax()
		for i := n - 1; i >= 0; i-- {
			j := sa[i] - 1
			if j >= 0 && stype[j] {
				c := text[j]
				bucket[c]--
				sa[bucket[c]] = j
			}
		}
	}

	var lms []int32
	for i := int32(1); i < int32(n); i++ {
		if isLMS(i) {
			lms = append(lms, i)
		}
	}
	induce(lms)

	names := make([]int32, n)
	name, prev := int32(-1), int32(-1)
	for _, p := range sa {
		if !isLMS(p) {
			continue
		}
		if prev < 0 || !equalLMS(text, stype, prev, p) {
			name++
		}
		names[p] = name
		prev = p
	}

	sorted := make([]int32, len(lms))
	if int(name)+1 < len(lms) {
		reduced := make([]int32, len(lms))
		for i, p := range lms {
			reduced[i] = names[p]
		}
		for i, r := range sais(reduced, int(name)+1) {
			sorted[i] = lms[r]
		}
	} else {
		for _, p := range lms {
			sorted[names[p]] = p
		}
	}
	induce(sorted)
	return sa
}

// equalLMS reports whether the LMS substrings starting at a and b are equal
// in characters and types. The substring that runs into the end of the text
// equals no other.
func equalLMS(text []int32, stype []bool, a, b int32) bool {
	n := int32(len(text))
	for i := int32(0); ; i++ {
		if a+i == n || b+i == n {
			return false
		}
		if text[a+i] != text[b+i] || stype[a+i] != stype[b+i] {
			return false
		}
		if i > 0 && stype[a+i] && !stype[a+i-1] {
			return true
		}
	}
}
