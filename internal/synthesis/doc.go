// Package synthesis calls the speech provider and turns its streamed
// responses into on-disk audio and subtitle artifacts. The HTTP client
// retries transport failures with exponential backoff and tries a configured
// proxy before a direct connection on every attempt; a normalizing adapter
// absorbs provider schema drift in timing and voice payloads.
package synthesis
