// Prometheus metrics for a single composer invocation.
//
// The composer is a short-lived process, so instead of serving metrics it
// writes them in the text exposition format to a node-exporter textfile
// collector directory when the job ends.
package metrics
