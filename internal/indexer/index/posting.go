package index

// Posting records how often a term occurs in one document.
type Posting struct {
	DocID     int
	Frequency int
}

// PostingList is ordered by ascending DocID.
type PostingList []Posting

// DocIDs returns the document ids in list order.
func (pl PostingList) DocIDs() []int {
	ids := make([]int, len(pl))
	for i, p := range pl {
		ids[i] = p.DocID
	}
	return ids
}

// CollectionFrequency sums the term's occurrences over all documents.
func (pl PostingList) CollectionFrequency() int {
	total := 0
	for _, p := range pl {
		total += p.Frequency
	}
	return total
}

// TermEntry is one row of an index snapshot.
type TermEntry struct {
	Term     string
	DocFreq  int
	Postings PostingList
}
