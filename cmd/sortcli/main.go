// Package main provides the sorting CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/genresort/internal/api/connect"
	"github.com/osa030/genresort/internal/api/sortv1"
)

var (
	app    = kingpin.New("genresort-cli", "genresort playlist sorting client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "API token (or set GENRESORT_API_TOKEN env)").Envar("GENRESORT_API_TOKEN").String()

	// playlists command
	playlistsCmd = app.Command("playlists", "List your playlists")

	// sort command
	sortCmd      = app.Command("sort", "Sort a playlist by genre")
	sortPlaylist = sortCmd.Arg("playlist", "Playlist URL, URI or ID").Required().String()

	// show command
	showCmd      = app.Command("show", "Show the current partition")
	showPlaylist = showCmd.Arg("playlist-id", "Playlist ID").Required().String()

	// move command
	moveCmd      = app.Command("move", "Move a track to another genre")
	movePlaylist = moveCmd.Arg("playlist-id", "Playlist ID").Required().String()
	moveTrack    = moveCmd.Arg("track-uri", "Track URI").Required().String()
	moveTo       = moveCmd.Arg("to", "Target genre").Required().String()
	moveFrom     = moveCmd.Flag("from", "Genre currently holding the track").String()

	// merge command
	mergeCmd      = app.Command("merge", "Merge genres into one")
	mergePlaylist = mergeCmd.Arg("playlist-id", "Playlist ID").Required().String()
	mergeGenres   = mergeCmd.Arg("genres", "Genres to merge").Required().Strings()

	// reassign command
	reassignCmd      = app.Command("reassign", "Move every track by an artist to a genre")
	reassignPlaylist = reassignCmd.Arg("playlist-id", "Playlist ID").Required().String()
	reassignArtist   = reassignCmd.Arg("artist", "Artist name").Required().String()
	reassignTo       = reassignCmd.Arg("to", "Target genre").Required().String()
	reassignCurrent  = reassignCmd.Flag("current", "Only search this genre").String()

	// uris command
	urisCmd      = app.Command("uris", "Print the track URIs of a genre")
	urisPlaylist = urisCmd.Arg("playlist-id", "Playlist ID").Required().String()
	urisGenre    = urisCmd.Arg("genre", "Genre").Required().String()

	// export command
	exportCmd      = app.Command("export", "Save a genre as a new playlist")
	exportPlaylist = exportCmd.Arg("playlist-id", "Playlist ID").Required().String()
	exportGenre    = exportCmd.Arg("genre", "Genre").Required().String()
	exportName     = exportCmd.Flag("name", "Name of the new playlist").String()

	// history command
	historyCmd      = app.Command("history", "Show the changes made to a partition")
	historyPlaylist = historyCmd.Arg("playlist-id", "Playlist ID").Required().String()

	// end command
	endCmd      = app.Command("end", "End the sorting session of a playlist")
	endPlaylist = endCmd.Arg("playlist-id", "Playlist ID").Required().String()

	// watch command
	watchCmd      = app.Command("watch", "Watch partition changes")
	watchPlaylist = watchCmd.Arg("playlist-id", "Playlist ID (default: all)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := sortv1.NewSorterServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewTokenInterceptor(*token)),
	)

	ctx := context.Background()

	switch command {
	case playlistsCmd.FullCommand():
		listPlaylists(ctx, client)
	case sortCmd.FullCommand():
		resp, err := client.SortPlaylist(ctx, connect.NewRequest(&sortv1.SortPlaylistRequest{PlaylistURL: *sortPlaylist}))
		exitOnError(err)
		printPartition(resp.Msg.Partition)
	case showCmd.FullCommand():
		resp, err := client.GetPartition(ctx, connect.NewRequest(&sortv1.GetPartitionRequest{PlaylistID: *showPlaylist}))
		exitOnError(err)
		printPartition(resp.Msg.Partition)
	case moveCmd.FullCommand():
		resp, err := client.MoveTrack(ctx, connect.NewRequest(&sortv1.MoveTrackRequest{
			PlaylistID: *movePlaylist,
			TrackURI:   *moveTrack,
			FromGenre:  *moveFrom,
			ToGenre:    *moveTo,
		}))
		exitOnError(err)
		if resp.Msg.Duplicate {
			fmt.Printf("Moved %s: %s -> %s (already present, not duplicated)\n", *moveTrack, resp.Msg.From, resp.Msg.To)
		} else {
			fmt.Printf("Moved %s: %s -> %s\n", *moveTrack, resp.Msg.From, resp.Msg.To)
		}
	case mergeCmd.FullCommand():
		resp, err := client.MergeGenres(ctx, connect.NewRequest(&sortv1.MergeGenresRequest{
			PlaylistID: *mergePlaylist,
			Genres:     *mergeGenres,
		}))
		exitOnError(err)
		fmt.Printf("Merged into %q (%d duplicates removed)\n", resp.Msg.Label, resp.Msg.DuplicatesRemoved)
		if len(resp.Msg.Missing) > 0 {
			fmt.Printf("Ignored missing genres: %s\n", strings.Join(resp.Msg.Missing, ", "))
		}
	case reassignCmd.FullCommand():
		resp, err := client.ReassignByArtist(ctx, connect.NewRequest(&sortv1.ReassignByArtistRequest{
			PlaylistID:   *reassignPlaylist,
			ArtistName:   *reassignArtist,
			NewGenre:     *reassignTo,
			CurrentGenre: *reassignCurrent,
		}))
		exitOnError(err)
		fmt.Printf("Moved %d tracks by %s to %q (%d already there)\n",
			resp.Msg.Moved, *reassignArtist, *reassignTo, resp.Msg.DuplicatesSkipped)
	case urisCmd.FullCommand():
		resp, err := client.GetBucketTrackURIs(ctx, connect.NewRequest(&sortv1.GetBucketTrackURIsRequest{
			PlaylistID: *urisPlaylist,
			Genre:      *urisGenre,
		}))
		exitOnError(err)
		for _, uri := range resp.Msg.TrackURIs {
			fmt.Println(uri)
		}
	case exportCmd.FullCommand():
		resp, err := client.ExportBucket(ctx, connect.NewRequest(&sortv1.ExportBucketRequest{
			PlaylistID: *exportPlaylist,
			Genre:      *exportGenre,
			Name:       *exportName,
		}))
		exitOnError(err)
		fmt.Printf("Created %q with %d tracks: %s\n", resp.Msg.Name, resp.Msg.TrackCount, resp.Msg.URL)
	case historyCmd.FullCommand():
		resp, err := client.GetHistory(ctx, connect.NewRequest(&sortv1.GetHistoryRequest{PlaylistID: *historyPlaylist}))
		exitOnError(err)
		for _, t := range resp.Msg.Transitions {
			fmt.Printf("#%-4d %s  %-9s %s\n", t.Revision, t.At.Local().Format("15:04:05"), t.Op, t.Summary)
		}
	case endCmd.FullCommand():
		_, err := client.EndSession(ctx, connect.NewRequest(&sortv1.EndSessionRequest{PlaylistID: *endPlaylist}))
		exitOnError(err)
		fmt.Println("Session ended")
	case watchCmd.FullCommand():
		watch(ctx, client, *watchPlaylist)
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	switch connect.CodeOf(err) {
	case connect.CodeNotFound:
		fmt.Printf("Not found: %v\n", err)
	case connect.CodeInvalidArgument:
		fmt.Printf("Invalid input: %v\n", err)
	case connect.CodeUnauthenticated:
		fmt.Println("Error: invalid or missing API token (use --token or GENRESORT_API_TOKEN env)")
	default:
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}

func listPlaylists(ctx context.Context, client *sortv1.SorterServiceClient) {
	resp, err := client.ListPlaylists(ctx, connect.NewRequest(&sortv1.ListPlaylistsRequest{}))
	exitOnError(err)

	fmt.Printf("Playlists (%d):\n", len(resp.Msg.Playlists))
	for _, p := range resp.Msg.Playlists {
		fmt.Printf("  %s  %-40s %4d tracks\n", p.ID, p.Name, p.TrackCount)
	}
}

func printPartition(p *sortv1.Partition) {
	name := p.PlaylistName
	if name == "" {
		name = p.PlaylistID
	}
	fmt.Printf("=== %s (revision %d) ===\n", name, p.Revision)
	for _, g := range p.Genres {
		fmt.Printf("\n%s (%d)\n", g.Label, len(g.Tracks))
		for _, t := range g.Tracks {
			fmt.Printf("  %s - %s  [%s]\n", t.ArtistName, t.Name, t.URI)
		}
	}
	if len(p.UnresolvedArtistIDs) > 0 {
		fmt.Printf("\nArtists whose genres could not be looked up: %d\n", len(p.UnresolvedArtistIDs))
	}
}

func watch(ctx context.Context, client *sortv1.SorterServiceClient, playlistID string) {
	stream, err := client.WatchPartition(ctx, connect.NewRequest(&sortv1.WatchPartitionRequest{PlaylistID: playlistID}))
	exitOnError(err)

	fmt.Println("Watching partition changes. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		os.Exit(0)
	}()

	for stream.Receive() {
		e := stream.Msg()
		fmt.Printf("[%d] %s playlist=%s revision=%d\n", e.SequenceNo, e.Kind, e.PlaylistID, e.Revision)
	}

	if err := stream.Err(); err != nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}
