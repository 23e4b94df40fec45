// Package service contains the application use cases of the newsletter
// system. It orchestrates the tracker client, LLM summarizer, stores, and
// mail sender to fulfill the three core flows: refreshing the enriched
// snapshot, managing subscriptions, and broadcasting personalized bulletins.
//
// Services receive their dependencies through constructor injection and
// depend only on interfaces, never on infrastructure implementations.
package service
