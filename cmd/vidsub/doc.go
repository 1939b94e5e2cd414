// Command vidsub submits a video to a remote transcription service and saves
// the resulting SRT subtitles.
//
// The run command drives one workflow end to end: it validates the file,
// streams it to the backend with a progress bar, requests transcription in
// the chosen target language, prints the detected language with a preview
// of the transcript and downloads the subtitle file. Other commands list
// the backend's languages, re-download subtitles from earlier runs, show
// the run journal, check backend and directory health, serve the local
// control API and scaffold configuration.
package main
