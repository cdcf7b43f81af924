// Package runtime looks up the container a crashed process belonged to.
//
// A [Runtime] connects to containerd and resolves a crash to the Kubernetes
// container that produced it. The kernel only knows the crashed process's
// hostname, which inside a pod is the pod name, and its executable name.
// [Runtime.Lookup] lists the containers labelled with that pod name, picks
// the one whose entrypoint matches the executable and returns an
// [Enrichment] describing it together with its image.
//
// The containerd address is either configured directly or read from a
// crictl configuration file with [ResolveAddress].
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "k8s.io", logger)
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	info, err := rt.Lookup(ctx, "web-7d9f", "segv")
//	if err != nil {
//	    return err
//	}
package runtime
