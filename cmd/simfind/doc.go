// Command simfind is a CLI for working with similarity indexes directly,
// without the HTTP service. It operates on the same store files the
// service uses, so indexes built here are visible there and vice versa.
// Do not run it against the data directory of a live service instance;
// the stores have a single-writer design.
//
// Usage:
//
//	simfind <command> [arguments]
//
// Commands:
//
//	index <directory>
//	        Create the index for a directory if needed, then hash every
//	        new or changed image in it. Progress is rendered to stderr.
//
//	search <directory> <image> [threshold]
//	        Find indexed images similar to <image>. The directory must
//	        have been indexed already. Threshold is the maximum Hamming
//	        distance (0-20, default 8); matches print one per line as
//	        distance and path, nearest first.
//
//	list
//	        List every index in the data directory with its record count
//	        and source directory.
//
//	delete <name>
//	        Delete an index by store file name (as shown by list).
//
//	prune <name>
//	        Remove records for files that no longer exist on disk.
//
// Environment:
//
//	DATA_DIR  - Path to the store directory (default: /data)
//	LOG_LEVEL - Library log verbosity; defaults to warn here so log
//	            lines do not interleave with the progress bar.
//
// Exit codes:
//
//	0  success
//	1  operation failed
//	2  usage error
//	3  an image could not be decoded
//	4  a store could not be read or written
package main
