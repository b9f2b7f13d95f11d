// Package storetest provides a small fixed corpus for tests.
package storetest

import "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"

// Sample returns the tutorial corpus used across the searcher tests.
func Sample() []*store.Document {
	return []*store.Document{
		store.NewDocument(1, "C++ Basics", "Learn C++ programming from scratch. This tutorial covers variables, loops, functions, classes, and more to help you get started quickly. Great for beginners.", "https://example.com/cpp-basics"),
		store.NewDocument(2, "Qt Tutorial", "GUI development with Qt framework. Create windows, buttons, input forms, layouts, and handle events in C++ using Qt.", "https://example.com/qt-tutorial"),
		store.NewDocument(3, "Advanced Search", "Building search engines in C++ using data structures like vectors, maps, and sets. Learn inverted index, keyword search, ranking, and tf-idf.", "https://example.com/advanced-search"),
		store.NewDocument(4, "Data Structures", "Learn arrays, linked list, stack, queue, trees, and graphs in C++. Understand their implementation and use in algorithms.", "https://example.com/ds"),
		store.NewDocument(5, "Algorithms", "Sorting, searching, graph traversal, dynamic programming, and more. Master algorithmic problem-solving with C++ examples.", "https://example.com/algo"),
		store.NewDocument(6, "DS & Algo (Short: DSA)", "Complete notes and examples for Data Structures and Algorithms (DSA). Perfect for placement and coding interviews.", "https://example.com/dsa"),
		store.NewDocument(7, "Binary Tree Top View", "This article explains top view of binary tree and other tree traversals including level-order and inorder, with examples in C++.", "https://example.com/topview"),
	}
}

// Store returns a Store holding docs in order.
func Store(docs []*store.Document) *store.Store {
	s := store.New()
	for _, d := range docs {
		s.Add(d)
	}
	return s
}
