// Package display renders the player screen and pushes frames to a panel.
//
// Renderer draws a 240x240 status frame: dimmed album art as background,
// the current track, volume, elapsed time and the button legend. A Panel
// shows frames: the ST7789 LCD over SPI, a PNG file, or nothing.
package display
